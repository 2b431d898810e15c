package ledger

import "github.com/dualikorea/reception/internal/models"

// SampleSeed returns the demonstration requests used on first run.
func SampleSeed() []models.RequestItem {
	return []models.RequestItem{
		{
			ID:          "1",
			Category:    models.CategoryRepair,
			Customer:    "삼성전자",
			ReceiveDate: "2024-05-15",
			Product:     "OLED 패널",
			Qty:         10,
			Issue:       "화면 잔상 현상 및 데드픽셀 발생",
			BuyDate:     "2023-10-01",
			Status:      models.StatusPending,
		},
		{
			ID:          "2",
			Category:    models.CategoryDevelopment,
			Customer:    "LG 이노텍",
			ReceiveDate: "2024-05-16",
			Product:     "카메라 모듈 v2",
			Qty:         1,
			Issue:       "저조도 노이즈 개선 펌웨어 개발 요청",
			BuyDate:     "2024-01-10",
			Status:      models.StatusInProgress,
		},
	}
}
