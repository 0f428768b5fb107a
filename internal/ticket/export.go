package ticket

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"helpdesk/infrastructure"
)

// Export streams every ticket as an xlsx workbook for offline reporting.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.tickets.ListAll(r.Context())
	if err != nil {
		log.Printf("ticket: failed to load tickets for export: %v", err)
		infrastructure.WriteError(w, http.StatusInternalServerError, "failed to export tickets")
		return
	}

	f := excelize.NewFile()
	const sheetName = "Tickets"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		infrastructure.WriteError(w, http.StatusInternalServerError, "failed to export tickets")
		return
	}
	_ = f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headers := []string{"ID", "Title", "Status", "Created By", "Assigned To", "Created At", "Updated At", "Image URLs"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	for row, t := range tickets {
		assignee := t.AssignedTo
		if assignee == "" {
			assignee = "-"
		}
		values := []interface{}{
			t.ID.String(),
			t.Title,
			t.Status,
			t.CreatedBy,
			assignee,
			t.CreatedAt.Format(time.RFC3339),
			t.UpdatedAt.Format(time.RFC3339),
			strings.Join(t.ImageURLs, ", "),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheetName, cell, v)
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="tickets-%s.xlsx"`, time.Now().UTC().Format("2006-01-02")))
	if err := f.Write(w); err != nil {
		log.Printf("ticket: failed to write export: %v", err)
	}
}
