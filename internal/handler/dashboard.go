package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Sapuran-Berperan/fleet-portal/internal/backend"
	"github.com/Sapuran-Berperan/fleet-portal/internal/model"
	"github.com/Sapuran-Berperan/fleet-portal/internal/session"
)

const (
	exportPageSize = 100
	exportMaxPages = 500
)

// Dashboard returns the statistics of every collection
func (p *Portal) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess, ws, ok := p.workspace(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	all, err := p.refresher.Dashboard(r.Context(), sess.JWT)
	if err != nil {
		if p.handleAuthExpired(w, r, ws, err) {
			return
		}
		respondBackendError(w, err)
		return
	}

	for _, s := range all {
		ws.SetMetrics(s)
	}
	respondSuccess(w, http.StatusOK, "Dashboard retrieved successfully", all)
}

var paymentHeaders = []interface{}{"ID", "Owner", "Boat", "Reason", "Status", "Amount", "Payment Date", "Receipt"}

// ExportPayments writes every payment matching the active payment filters
// as an XLSX workbook
func (p *Portal) ExportPayments(w http.ResponseWriter, r *http.Request) {
	sess, ws, ok := p.workspace(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var filters model.FilterState
	if list, err := ws.List(model.ResourcePayments); err == nil && list.Loaded() {
		filters = list.View().Filters
	}

	payments, err := p.collectPayments(r.Context(), sess, filters)
	if err != nil {
		if p.handleAuthExpired(w, r, ws, err) {
			return
		}
		p.logger.Warn("payments export failed", zap.Error(err))
		respondBackendError(w, err)
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Payments"
	f.SetSheetName("Sheet1", sheet)
	f.SetSheetRow(sheet, "A1", &paymentHeaders)
	style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheet, "A1", "H1", style)

	for i, pay := range payments {
		row := []interface{}{
			pay.ID,
			pay.OwnerName,
			pay.BoatName,
			pay.Reason,
			pay.Status,
			pay.Amount,
			pay.PaymentDate,
			pay.ReceiptFileName,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		f.SetSheetRow(sheet, cell, &row)
	}

	f.SetColWidth(sheet, "B", "C", 25)
	f.SetColWidth(sheet, "D", "E", 15)
	f.SetColWidth(sheet, "G", "H", 20)

	fileName := fmt.Sprintf("payments_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+fileName)

	if err := f.Write(w); err != nil {
		p.logger.Error("failed to write payments workbook", zap.Error(err))
	}
}

// collectPayments walks every backend page of payments matching filters
func (p *Portal) collectPayments(ctx context.Context, sess *session.Session, filters model.FilterState) ([]model.Payment, error) {
	var all []model.Payment
	for page := 0; page < exportMaxPages; page++ {
		res, err := backend.ListPage[model.Payment](ctx, p.client, sess.JWT, model.ResourcePayments, model.PageQuery{
			Page:    page,
			Size:    exportPageSize,
			Filters: filters,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, res.Content...)
		if page+1 >= res.TotalPages || len(res.Content) == 0 {
			break
		}
	}
	return all, nil
}
