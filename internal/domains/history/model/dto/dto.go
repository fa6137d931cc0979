package dto

import (
	"roombook/internal/domains/history/model"
	"roombook/shared"
	"roombook/shared/constant"
	"roombook/shared/timezone"
)

const performerSystem = "system"

type HistoryResponse struct {
	ID            string  `json:"id"`
	BookingID     string  `json:"booking_id"`
	Action        string  `json:"action"`
	OldStatus     *string `json:"old_status"`
	NewStatus     string  `json:"new_status"`
	Comment       string  `json:"comment"`
	PerformedBy   *string `json:"performed_by"`
	PerformerName string  `json:"performer_name"`
	CreatedAt     string  `json:"created_at"`
}

func (r *HistoryResponse) FromModel(model model.History) {
	r.ID = model.ID
	r.BookingID = model.BookingID
	r.Action = model.Action
	r.OldStatus = model.OldStatus
	r.NewStatus = model.NewStatus
	r.Comment = model.Comment
	r.PerformedBy = model.PerformedBy
	r.CreatedAt = timezone.Format(model.CreatedAt, constant.DateFormat)

	switch {
	case model.PerformedBy == nil:
		r.PerformerName = performerSystem
	case model.PerformerName != nil:
		r.PerformerName = *model.PerformerName
	}
}

type GetHistoriesResponse struct {
	Histories []HistoryResponse `json:"histories"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetHistoriesResponse) FromModels(models []model.History, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Histories = make([]HistoryResponse, len(models))
	for i, mod := range models {
		r.Histories[i].FromModel(mod)
	}
}
