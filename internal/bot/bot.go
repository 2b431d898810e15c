package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dualikorea/reception/internal/advisor"
	"github.com/dualikorea/reception/internal/ledger"
	"github.com/dualikorea/reception/internal/models"
)

// sender is the part of *tgbotapi.BotAPI the handlers use.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// diagnoser is satisfied by *advisor.Client.
type diagnoser interface {
	Diagnose(ctx context.Context, issue, product string) string
}

type Bot struct {
	api      *tgbotapi.BotAPI
	out      sender
	store    *ledger.Store
	advisor  diagnoser
	advice   *advisor.Book
	staffIDs []int64
	now      func() time.Time

	// pendingDeletes maps a chat to the request awaiting /confirm there.
	pendingDeletes map[int64]string
	advising       sync.WaitGroup
}

type Config struct {
	Token    string
	StaffIDs []int64
}

func New(cfg Config, store *ledger.Store, client *advisor.Client) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	log.Printf("Authorized on account %s", api.Self.UserName)

	b := newBot(api, store, client, cfg.StaffIDs)
	b.api = api
	return b, nil
}

func newBot(out sender, store *ledger.Store, client diagnoser, staffIDs []int64) *Bot {
	return &Bot{
		out:            out,
		store:          store,
		advisor:        client,
		advice:         advisor.NewBook(),
		staffIDs:       staffIDs,
		now:            time.Now,
		pendingDeletes: make(map[int64]string),
	}
}

// Run handles updates until the update channel closes. All ledger access
// happens on this goroutine.
func (b *Bot) Run() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			continue
		}
		b.handleUpdate(update.Message)
	}

	b.advising.Wait()
	return nil
}

// Stop ends long polling; Run returns once pending advice is delivered.
func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
}

func (b *Bot) handleUpdate(msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	if !b.isStaff(msg.From.ID) {
		b.sendMessage(msg.Chat.ID, "This desk is for staff only. Ask an administrator to add your Telegram ID.")
		return
	}

	if msg.IsCommand() {
		b.handleCommand(msg)
	} else {
		b.sendMessage(msg.Chat.ID, "Use /help to see available commands.")
	}
}

const helpText = "Commands:\n" +
	"/new <category> | <customer> | <product> | <qty> | <issue> [| <receive date> [| <buy date>]] - Record a request\n" +
	"/list [repair|development|all] [search] - List requests\n" +
	"/stats - Dashboard counts\n" +
	"/show <id> - Request details\n" +
	"/status <id> <pending|in_progress|completed> - Change status\n" +
	"/process <id> <repair|replacement|impossible|other> [note] - Record processing\n" +
	"/note <id> <text> - Set processing note\n" +
	"/advise <id> - Ask AI for a diagnosis\n" +
	"/dismiss <id> - Clear AI advice\n" +
	"/delete <id> - Delete a request (asks for /confirm)\n" +
	"/confirm <id> - Confirm a pending delete\n" +
	"/help - Show this help message"

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := msg.CommandArguments()

	switch msg.Command() {
	case "start":
		b.sendMessage(chatID, "Welcome to the service request desk!\n\n"+helpText)

	case "help":
		b.sendMessage(chatID, helpText)

	case "new":
		b.handleNew(chatID, args)

	case "list":
		b.handleList(chatID, args)

	case "stats":
		b.handleStats(chatID)

	case "show":
		b.handleShow(chatID, args)

	case "status":
		b.handleStatus(chatID, args)

	case "process":
		b.handleProcess(chatID, args)

	case "note":
		b.handleNote(chatID, args)

	case "advise":
		b.handleAdvise(chatID, args)

	case "dismiss":
		b.handleDismiss(chatID, args)

	case "delete":
		b.handleDelete(chatID, args)

	case "confirm":
		b.handleConfirm(chatID, args)

	default:
		b.sendMessage(chatID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) handleNew(chatID int64, args string) {
	draft, err := parseDraft(args, b.now())
	if err != nil {
		b.sendMessage(chatID, err.Error()+"\n\nUsage: /new repair | Acme | Widget | 2 | cracked case | 2024-01-01")
		return
	}

	item, err := b.store.Add(draft)
	if err != nil {
		b.sendMessage(chatID, "Could not record request: "+err.Error())
		return
	}

	b.sendMessage(chatID, fmt.Sprintf("📝 Request %s recorded.\n\n%s", shortID(item.ID), formatItem(item))+b.saveWarning())
}

func (b *Bot) handleList(chatID int64, args string) {
	category, search := parseListArgs(args)
	requests := b.store.Filter(category, search)

	if len(requests) == 0 {
		b.sendMessage(chatID, "No matching requests.")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 REQUESTS (%d)\n\n", len(requests)))
	for _, req := range requests {
		sb.WriteString(formatLine(req))
		sb.WriteString("\n")
	}

	b.sendMessage(chatID, sb.String())
}

func (b *Bot) handleStats(chatID int64) {
	st := b.store.Stats()

	var sb strings.Builder
	sb.WriteString("📊 DASHBOARD\n\n")
	sb.WriteString(fmt.Sprintf("Total: %d\n", st.Total))
	for _, slice := range ledger.StatusChart(st) {
		sb.WriteString(fmt.Sprintf("%s %-4s %3d %s\n", statusIcon(slice.Status), slice.Name, slice.Value, bar(slice.Value, st.Total)))
	}

	b.sendMessage(chatID, sb.String())
}

func (b *Bot) handleShow(chatID int64, args string) {
	id, ok := b.resolve(chatID, args, "/show <id>")
	if !ok {
		return
	}
	item, err := b.store.Get(id)
	if err != nil {
		b.sendMessage(chatID, err.Error())
		return
	}

	text := formatItem(item)
	if b.advice.Pending(id) {
		text += "\n\n🤖 AI diagnosis in progress..."
	} else if advice, ok := b.advice.Advice(id); ok {
		text += "\n\n" + advisor.FormatAdvice(item, advice)
	}
	b.sendMessage(chatID, text)
}

func (b *Bot) handleStatus(chatID int64, args string) {
	ref, rest := splitFirst(args)
	status, err := models.ParseStatus(rest)
	if ref == "" || err != nil {
		b.sendMessage(chatID, "Usage: /status <id> <pending|in_progress|completed>")
		return
	}
	b.update(chatID, ref, models.Changes{Status: &status})
}

func (b *Bot) handleProcess(chatID int64, args string) {
	ref, rest := splitFirst(args)
	typeArg, note := splitFirst(rest)
	processType, err := models.ParseProcessType(typeArg)
	if ref == "" || err != nil {
		b.sendMessage(chatID, "Usage: /process <id> <repair|replacement|impossible|other> [note]")
		return
	}

	changes := models.Changes{ProcessType: &processType}
	if note != "" {
		changes.ProcessNote = &note
	}
	b.update(chatID, ref, changes)
}

func (b *Bot) handleNote(chatID int64, args string) {
	ref, note := splitFirst(args)
	if ref == "" {
		b.sendMessage(chatID, "Usage: /note <id> <text>")
		return
	}
	b.update(chatID, ref, models.Changes{ProcessNote: &note})
}

func (b *Bot) update(chatID int64, ref string, changes models.Changes) {
	id, ok := b.resolve(chatID, ref, "")
	if !ok {
		return
	}
	item, err := b.store.Update(id, changes)
	if err != nil {
		b.sendMessage(chatID, "Could not update request: "+err.Error())
		return
	}
	b.sendMessage(chatID, "✅ Updated.\n\n"+formatItem(item)+b.saveWarning())
}

func (b *Bot) handleAdvise(chatID int64, args string) {
	id, ok := b.resolve(chatID, args, "/advise <id>")
	if !ok {
		return
	}
	item, err := b.store.Get(id)
	if err != nil {
		b.sendMessage(chatID, err.Error())
		return
	}
	if !b.advice.Begin(id) {
		b.sendMessage(chatID, fmt.Sprintf("AI diagnosis for %s is already in progress.", shortID(id)))
		return
	}

	b.sendMessage(chatID, fmt.Sprintf("🤖 Asking AI about %s...", shortID(id)))

	b.advising.Add(1)
	go func() {
		defer b.advising.Done()
		text := b.advisor.Diagnose(context.Background(), item.Issue, item.Product)
		b.advice.Finish(id, text)
		b.sendMessage(chatID, advisor.FormatAdvice(item, text)+fmt.Sprintf("\n/dismiss %s to clear", shortID(id)))
	}()
}

func (b *Bot) handleDismiss(chatID int64, args string) {
	id, ok := b.resolve(chatID, args, "/dismiss <id>")
	if !ok {
		return
	}
	b.advice.Dismiss(id)
	b.sendMessage(chatID, fmt.Sprintf("AI advice for %s cleared.", shortID(id)))
}

func (b *Bot) handleDelete(chatID int64, args string) {
	id, ok := b.resolve(chatID, args, "/delete <id>")
	if !ok {
		return
	}
	item, err := b.store.Get(id)
	if err != nil {
		b.sendMessage(chatID, err.Error())
		return
	}

	b.pendingDeletes[chatID] = id
	b.sendMessage(chatID, fmt.Sprintf("⚠️ Delete this request? This cannot be undone.\n\n%s\n\nReply /confirm %s to delete.",
		formatLine(item), shortID(id)))
}

func (b *Bot) handleConfirm(chatID int64, args string) {
	id, ok := b.resolve(chatID, args, "/confirm <id>")
	if !ok {
		return
	}
	if b.pendingDeletes[chatID] != id {
		b.sendMessage(chatID, fmt.Sprintf("Nothing to confirm for %s. Use /delete %s first.", shortID(id), shortID(id)))
		return
	}
	delete(b.pendingDeletes, chatID)

	if err := b.store.Remove(id); err != nil {
		b.sendMessage(chatID, "Could not delete request: "+err.Error())
		return
	}
	b.advice.Dismiss(id)
	b.sendMessage(chatID, fmt.Sprintf("🗑 Request %s deleted.", shortID(id))+b.saveWarning())
}

// resolve turns a typed id reference into a full id, replying with the
// problem when it cannot. usage is shown for an empty reference.
func (b *Bot) resolve(chatID int64, ref, usage string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		if usage != "" {
			b.sendMessage(chatID, "Usage: "+usage)
		}
		return "", false
	}
	id, err := b.store.Resolve(ref)
	if err != nil {
		var nf *ledger.NotFoundError
		if errors.As(err, &nf) {
			b.sendMessage(chatID, fmt.Sprintf("No request matches %q.", ref))
		} else {
			b.sendMessage(chatID, err.Error())
		}
		return "", false
	}
	return id, true
}

func (b *Bot) saveWarning() string {
	if err := b.store.LastSaveError(); err != nil {
		return "\n\n⚠️ The change could not be saved to disk and will be lost on restart."
	}
	return ""
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.out.Send(msg)
	if err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

func (b *Bot) isStaff(userID int64) bool {
	for _, id := range b.staffIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Helper functions

// parseDraft reads "category | customer | product | qty | issue [| receive
// date [| buy date]]". Blank category, qty and receive date default to
// repair, 1 and today.
func parseDraft(args string, now time.Time) (models.Draft, error) {
	fields := strings.Split(args, "|")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if len(fields) < 5 || len(fields) > 7 {
		return models.Draft{}, fmt.Errorf("expected 5 to 7 fields separated by |, got %d", len(fields))
	}

	draft := models.Draft{
		Category:    models.CategoryRepair,
		Customer:    fields[1],
		Product:     fields[2],
		Qty:         1,
		Issue:       fields[4],
		ReceiveDate: models.Today(now),
	}
	if fields[0] != "" {
		category, err := models.ParseCategory(fields[0])
		if err != nil {
			return models.Draft{}, err
		}
		draft.Category = category
	}
	if fields[3] != "" {
		qty, err := strconv.Atoi(fields[3])
		if err != nil {
			return models.Draft{}, fmt.Errorf("invalid qty %q", fields[3])
		}
		draft.Qty = qty
	}
	if len(fields) > 5 && fields[5] != "" {
		draft.ReceiveDate = fields[5]
	}
	if len(fields) > 6 {
		draft.BuyDate = fields[6]
	}
	return draft, nil
}

// parseListArgs treats a leading category word (or "all") as the category
// filter and the rest as search text.
func parseListArgs(args string) (category, search string) {
	first, rest := splitFirst(args)
	if strings.EqualFold(first, ledger.AllCategories) {
		return ledger.AllCategories, rest
	}
	if c, err := models.ParseCategory(first); err == nil && first != "" {
		return string(c), rest
	}
	return ledger.AllCategories, strings.TrimSpace(args)
}

func splitFirst(s string) (string, string) {
	s = strings.TrimSpace(s)
	first, rest, _ := strings.Cut(s, " ")
	return first, strings.TrimSpace(rest)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func statusIcon(s models.Status) string {
	switch s {
	case models.StatusPending:
		return "🟡"
	case models.StatusInProgress:
		return "🔵"
	case models.StatusCompleted:
		return "🟢"
	}
	return "⚪"
}

func bar(value, total int) string {
	const width = 10
	if total == 0 {
		return ""
	}
	n := value * width / total
	return strings.Repeat("█", n) + strings.Repeat("░", width-n)
}

func formatLine(req models.RequestItem) string {
	return fmt.Sprintf("%s %s • %s • %s • %s ×%d\n   %s",
		statusIcon(req.Status), shortID(req.ID), req.Category.Label(), req.Customer, req.Product, req.Qty, req.Issue)
}

func formatItem(item models.RequestItem) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("━━━ %s • %s\n", shortID(item.ID), item.Category.Label()))
	sb.WriteString(fmt.Sprintf("Customer: %s\n", item.Customer))
	sb.WriteString(fmt.Sprintf("Product: %s ×%d\n", item.Product, item.Qty))
	sb.WriteString(fmt.Sprintf("Issue: %s\n", item.Issue))
	sb.WriteString(fmt.Sprintf("Received: %s\n", item.ReceiveDate))
	if item.BuyDate != "" {
		sb.WriteString(fmt.Sprintf("Bought: %s\n", item.BuyDate))
	}
	sb.WriteString(fmt.Sprintf("Status: %s %s", statusIcon(item.Status), item.Status.Label()))
	if item.ProcessType != "" {
		sb.WriteString(fmt.Sprintf("\nProcessing: %s", item.ProcessType.Label()))
	}
	if item.ProcessNote != "" {
		sb.WriteString(fmt.Sprintf("\nNote: %s", item.ProcessNote))
	}
	if item.ProcessDate != "" {
		sb.WriteString(fmt.Sprintf("\nProcessed: %s", item.ProcessDate))
	}
	return sb.String()
}
