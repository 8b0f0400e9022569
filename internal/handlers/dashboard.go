package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gocard/gateway/internal/models"
)

const monthlyHoursPath = "/reports/monthly-hours"

// AdminDashboard composes the admin landing view: every fleet collection at
// a glance. Partial failures surface per section instead of blanking the
// whole view.
func (h HandlerSet) AdminDashboard(c *gin.Context) {
	ctx := reqCtx(c)
	view := gin.H{"session": mustSession(c)}
	sectionErrors := gin.H{}

	if employees, err := h.employees.List(ctx); err != nil {
		sectionErrors["employees"] = err.Error()
	} else {
		view["employees"] = employees
	}
	if bicycles, err := h.bicycles.List(ctx); err != nil {
		sectionErrors["bicycles"] = err.Error()
	} else {
		view["bicycles"] = bicycles
	}
	if routes, err := h.routes.List(ctx); err != nil {
		sectionErrors["routes"] = err.Error()
	} else {
		view["routes"] = routes
	}
	if shifts, err := h.shifts.List(ctx); err != nil {
		sectionErrors["shifts"] = err.Error()
	} else {
		view["shifts"] = shifts
	}

	if len(sectionErrors) > 0 {
		view["errors"] = sectionErrors
	}
	c.JSON(http.StatusOK, view)
}

// AdminManagement backs the management screen: the same collections plus the
// monthly hours report for the current month.
func (h HandlerSet) AdminManagement(c *gin.Context) {
	ctx := reqCtx(c)
	view := gin.H{"session": mustSession(c)}
	sectionErrors := gin.H{}

	if employees, err := h.employees.List(ctx); err != nil {
		sectionErrors["employees"] = err.Error()
	} else {
		view["employees"] = employees
	}
	if shifts, err := h.shifts.List(ctx); err != nil {
		sectionErrors["shifts"] = err.Error()
	} else {
		view["shifts"] = shifts
	}

	now := time.Now()
	rows, err := h.fetchMonthlyHours(c, url.Values{
		"year":  {strconv.Itoa(now.Year())},
		"month": {strconv.Itoa(int(now.Month()))},
	})
	if err != nil {
		sectionErrors["monthlyHours"] = err.Error()
	} else {
		view["monthlyHours"] = rows
	}

	if len(sectionErrors) > 0 {
		view["errors"] = sectionErrors
	}
	c.JSON(http.StatusOK, view)
}

// EmployeeDashboard backs the employee landing view: personal info, routes,
// the clock snapshot, and the work-hours chart covering the last three
// months.
func (h HandlerSet) EmployeeDashboard(c *gin.Context) {
	ctx := reqCtx(c)
	sess := mustSession(c)
	view := gin.H{"session": sess}
	sectionErrors := gin.H{}

	var employee models.Employee
	if err := h.client.Get(ctx, "/Employees/"+strconv.Itoa(sess.UserID), nil, &employee); err != nil {
		sectionErrors["employee"] = err.Error()
	} else {
		view["employee"] = employee
	}

	if routes, err := h.routes.List(ctx); err != nil {
		sectionErrors["routes"] = err.Error()
	} else {
		view["routes"] = routes
	}

	if snap, err := h.machine.Snapshot(ctx, sess.UserID); err != nil {
		sectionErrors["clock"] = err.Error()
	} else {
		view["clock"] = snap
	}

	view["workHours"] = h.recentMonthlyHours(c, sess.UserID, 3)

	if len(sectionErrors) > 0 {
		view["errors"] = sectionErrors
	}
	c.JSON(http.StatusOK, view)
}

// MonthlyHours proxies the aggregate report. employeeId, month and year are
// passed through when present.
func (h HandlerSet) MonthlyHours(c *gin.Context) {
	query := url.Values{}
	for _, key := range []string{"employeeId", "month", "year"} {
		if v := c.Query(key); v != "" {
			if _, err := strconv.Atoi(v); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": key + " must be numeric"})
				return
			}
			query.Set(key, v)
		}
	}

	rows, err := h.fetchMonthlyHours(c, query)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h HandlerSet) fetchMonthlyHours(c *gin.Context, query url.Values) ([]models.MonthlyHoursRow, error) {
	var rows []models.MonthlyHoursRow
	if err := h.client.Get(reqCtx(c), monthlyHoursPath, query, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// recentMonthlyHours walks backwards month by month, skipping months whose
// fetch fails; a missing month never sinks the dashboard.
func (h HandlerSet) recentMonthlyHours(c *gin.Context, employeeID, monthsBack int) []models.MonthlyHoursRow {
	now := time.Now()
	results := make([]models.MonthlyHoursRow, 0, monthsBack)

	for offset := monthsBack - 1; offset >= 0; offset-- {
		at := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local).AddDate(0, -offset, 0)
		rows, err := h.fetchMonthlyHours(c, url.Values{
			"employeeId": {strconv.Itoa(employeeID)},
			"year":       {strconv.Itoa(at.Year())},
			"month":      {strconv.Itoa(int(at.Month()))},
		})
		if err != nil {
			h.log.Warn().Err(err).Int("year", at.Year()).Int("month", int(at.Month())).
				Msg("monthly hours fetch failed")
			continue
		}
		if len(rows) > 0 {
			results = append(results, rows[0])
		}
	}
	return results
}
