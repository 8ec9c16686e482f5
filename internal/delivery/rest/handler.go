package rest

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pavel13595/Baranchik-Inventory/internal/domain/entity"
	"github.com/pavel13595/Baranchik-Inventory/internal/domain/quantity"
	"github.com/pavel13595/Baranchik-Inventory/internal/domain/repository"
	"github.com/pavel13595/Baranchik-Inventory/internal/usecase"
)

// exportFailedMessage is what the UI shows for any export failure.
const exportFailedMessage = "Помилка під час експорту в Excel. Спробуйте ще раз."

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler serves the inventory API.
type Handler struct {
	inventory usecase.InventoryUseCase
	export    usecase.ExportUseCase
	sheets    repository.SheetStore
}

type countRequest struct {
	Value string `json:"value"`
}

type adjustRequest struct {
	Delta float64 `json:"delta"`
}

type selectCityRequest struct {
	City string `json:"city"`
}

type addItemRequest struct {
	Name         string `json:"name"`
	DepartmentID string `json:"departmentId"`
}

type exportRequest struct {
	DepartmentIDs     []string `json:"departmentIds"`
	SendToExternalApp bool     `json:"sendToExternalApp"`
	UserAgent         string   `json:"userAgent"`
}

func errorJSON(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// storeError maps store errors onto HTTP statuses.
func storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrUnknownDepartment),
		errors.Is(err, usecase.ErrEmptyItemName),
		errors.Is(err, usecase.ErrEmptyCity):
		errorJSON(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, usecase.ErrUnknownItem):
		errorJSON(c, http.StatusNotFound, err.Error())
	default:
		log.Printf("[http] %s %s: %v", c.Request.Method, c.FullPath(), err)
		errorJSON(c, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.inventory.Status())
}

func (h *Handler) CheckStatus(c *gin.Context) {
	h.inventory.CheckOnlineStatus(c.Request.Context())
	c.JSON(http.StatusOK, h.inventory.Status())
}

func (h *Handler) ListCities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"cities":   entity.SeedCities(),
		"selected": h.inventory.SelectedCity(),
	})
}

func (h *Handler) SelectCity(c *gin.Context) {
	var req selectCityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid body")
		return
	}
	if err := h.inventory.SelectCity(c.Request.Context(), req.City); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"selected": h.inventory.SelectedCity()})
}

func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.inventory.GetState(c.Request.Context(), c.Param("city")))
}

// UpdateCount sets a count from raw user input ("1,5", "", "12").
func (h *Handler) UpdateCount(c *gin.Context) {
	var req countRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid body")
		return
	}
	dept := c.Param("dept")
	policy := quantity.PolicyFor(dept)
	q, err := quantity.Parse(req.Value, policy)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.inventory.UpdateItemCount(c.Request.Context(), c.Param("city"), dept, c.Param("item"), q.Float64()); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"value": q.Float64(), "display": q.Format(policy)})
}

func (h *Handler) AdjustCount(c *gin.Context) {
	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid body")
		return
	}
	value, err := h.inventory.AdjustItemCount(c.Request.Context(), c.Param("city"), c.Param("dept"), c.Param("item"), req.Delta)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"value": value})
}

func (h *Handler) ResetDepartment(c *gin.Context) {
	if err := h.inventory.ResetDepartmentCounts(c.Request.Context(), c.Param("city"), c.Param("dept")); err != nil {
		storeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) DepartmentTotal(c *gin.Context) {
	total := h.inventory.DepartmentTotal(c.Request.Context(), c.Param("city"), c.Param("dept"))
	c.JSON(http.StatusOK, gin.H{"total": total})
}

func (h *Handler) SearchItems(c *gin.Context) {
	items := h.inventory.SearchItems(c.Request.Context(), c.Param("city"), c.Param("dept"), c.Query("q"))
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid body")
		return
	}
	item, err := h.inventory.AddNewItem(c.Request.Context(), c.Param("city"), req.Name, req.DepartmentID)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) DeleteItem(c *gin.Context) {
	h.inventory.DeleteItem(c.Request.Context(), c.Param("city"), c.Param("item"), c.Param("dept"))
	c.Status(http.StatusNoContent)
}

// Export builds and delivers one workbook per requested department
// (every department when none is named).
func (h *Handler) Export(c *gin.Context) {
	var req exportRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, "invalid body")
			return
		}
	}

	city := c.Param("city")
	state := h.inventory.GetState(c.Request.Context(), city)
	departments := state.Departments
	if len(req.DepartmentIDs) > 0 {
		departments = make([]entity.Department, 0, len(req.DepartmentIDs))
		for _, id := range req.DepartmentIDs {
			dept, ok := entity.FindDepartment(state.Departments, id)
			if !ok {
				errorJSON(c, http.StatusBadRequest, "unknown department: "+id)
				return
			}
			departments = append(departments, dept)
		}
	}

	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = c.Request.UserAgent()
	}
	results, err := h.export.Export(c.Request.Context(), usecase.ExportRequest{
		City:              city,
		Departments:       departments,
		Items:             state.Items,
		Quantities:        state.Quantities,
		SendToExternalApp: req.SendToExternalApp,
		UserAgent:         userAgent,
	})
	if err != nil {
		log.Printf("[http] export %s failed: %v", city, err)
		errorJSON(c, http.StatusInternalServerError, exportFailedMessage)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": results})
}

// DownloadWorkbook streams one department workbook to the browser.
func (h *Handler) DownloadWorkbook(c *gin.Context) {
	city := c.Param("city")
	state := h.inventory.GetState(c.Request.Context(), city)
	dept, ok := entity.FindDepartment(state.Departments, c.Param("dept"))
	if !ok {
		errorJSON(c, http.StatusBadRequest, "unknown department: "+c.Param("dept"))
		return
	}
	doc, err := h.export.BuildDocument(city, dept, state.Items, state.Quantities)
	if err != nil {
		log.Printf("[http] workbook %s/%s failed: %v", city, dept.ID, err)
		errorJSON(c, http.StatusInternalServerError, exportFailedMessage)
		return
	}
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(doc.FileName))
	c.Data(http.StatusOK, xlsxContentType, doc.Data)
}

// RemoteInventory returns the raw values of the "<city>_<type>" sheet.
func (h *Handler) RemoteInventory(c *gin.Context) {
	city := strings.TrimSpace(c.Query("city"))
	kind := strings.TrimSpace(c.Query("type"))
	if city == "" || kind == "" {
		errorJSON(c, http.StatusBadRequest, "city and type required")
		return
	}
	if h.sheets == nil {
		errorJSON(c, http.StatusServiceUnavailable, "remote spreadsheet is not configured")
		return
	}
	rows, err := h.sheets.ReadSheet(c.Request.Context(), city+"_"+kind)
	if err != nil {
		log.Printf("[http] read sheet %s_%s failed: %v", city, kind, err)
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	if rows == nil {
		rows = [][]string{}
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

func (h *Handler) ClearStorage(c *gin.Context) {
	if err := h.inventory.ClearAll(c.Request.Context()); err != nil {
		storeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
