package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/pavel13595/Baranchik-Inventory/internal/domain/constants"
	"github.com/pavel13595/Baranchik-Inventory/internal/domain/entity"
	"github.com/pavel13595/Baranchik-Inventory/internal/domain/repository"
	"github.com/pavel13595/Baranchik-Inventory/internal/infrastructure/metrics"
)

// ErrExportFailed wraps any error that aborted an export.
var ErrExportFailed = errors.New("export failed")

// Delivery modes reported per document.
const (
	DeliveryDownload = "download"
	DeliveryShare    = "share"
	// DeliveryFallback: share failed, the file was saved locally and a chat
	// deep link asks the user to attach it by hand.
	DeliveryFallback = "download_deeplink"
)

// ExportRequest describes one export action for one city.
type ExportRequest struct {
	City              string
	Departments       []entity.Department
	Items             []entity.Item
	Quantities        entity.Quantities
	SendToExternalApp bool
	UserAgent         string
}

// ExportResult reports how one department document was delivered.
type ExportResult struct {
	DepartmentID   string `json:"departmentId"`
	DepartmentName string `json:"departmentName"`
	FileName       string `json:"fileName"`
	Mode           string `json:"mode"`
	Location       string `json:"location,omitempty"`
	DeepLink       string `json:"deepLink,omitempty"`
}

// ExportUseCase turns inventory into per-department workbooks.
type ExportUseCase interface {
	Export(ctx context.Context, req ExportRequest) ([]ExportResult, error)
	BuildDocument(city string, dept entity.Department, items []entity.Item, quantities entity.Quantities) (entity.Document, error)
}

// ExportDeps wires delivery adapters. Sharer and Linker may be nil.
type ExportDeps struct {
	Brand      string
	Location   *time.Location
	Clock      Clock
	Downloader repository.Downloader
	Sharer     repository.Sharer
	Linker     repository.DeepLinker
	Metrics    *metrics.Metrics
}

type exportUseCase struct {
	brand      string
	loc        *time.Location
	clock      Clock
	downloader repository.Downloader
	sharer     repository.Sharer
	linker     repository.DeepLinker
	metrics    *metrics.Metrics
}

func NewExportUseCase(deps ExportDeps) ExportUseCase {
	if strings.TrimSpace(deps.Brand) == "" {
		deps.Brand = constants.DefaultBrand
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock()
	}
	return &exportUseCase{
		brand:      deps.Brand,
		loc:        deps.Location,
		clock:      deps.Clock,
		downloader: deps.Downloader,
		sharer:     deps.Sharer,
		linker:     deps.Linker,
		metrics:    deps.Metrics,
	}
}

func (u *exportUseCase) BuildDocument(city string, dept entity.Department, items []entity.Item, quantities entity.Quantities) (entity.Document, error) {
	date := u.clock.Now().In(u.loc)
	data, err := BuildWorkbook(WorkbookInput{
		Brand:      u.brand,
		City:       city,
		Department: dept,
		Items:      items,
		Quantities: quantities,
		Date:       date,
	})
	if err != nil {
		return entity.Document{}, fmt.Errorf("%w: build %s: %v", ErrExportFailed, dept.Name, err)
	}
	return entity.Document{
		FileName:       WorkbookFileName(dept.Name, date),
		DepartmentID:   dept.ID,
		DepartmentName: dept.Name,
		Data:           data,
	}, nil
}

// Export builds one document per department, in order, and delivers each.
// The first generation or download error aborts the whole call.
func (u *exportUseCase) Export(ctx context.Context, req ExportRequest) ([]ExportResult, error) {
	if u.downloader == nil {
		return nil, fmt.Errorf("%w: no downloader configured", ErrExportFailed)
	}
	results := make([]ExportResult, 0, len(req.Departments))
	for _, dept := range req.Departments {
		doc, err := u.BuildDocument(req.City, dept, req.Items, req.Quantities)
		if err != nil {
			log.Printf("[export] %v", err)
			return nil, err
		}

		res, err := u.deliver(ctx, doc, req)
		if err != nil {
			log.Printf("[export] deliver %s failed: %v", doc.FileName, err)
			return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
		}
		u.metrics.Export(res.Mode)
		results = append(results, res)
	}
	return results, nil
}

func (u *exportUseCase) deliver(ctx context.Context, doc entity.Document, req ExportRequest) (ExportResult, error) {
	res := ExportResult{
		DepartmentID:   doc.DepartmentID,
		DepartmentName: doc.DepartmentName,
		FileName:       doc.FileName,
	}

	if req.SendToExternalApp && u.sharer != nil {
		err := u.sharer.Share(ctx, doc)
		if err == nil {
			res.Mode = DeliveryShare
			return res, nil
		}
		if !errors.Is(err, repository.ErrShareUnsupported) {
			log.Printf("[export] share %s failed, falling back to download: %v", doc.FileName, err)
		}
	}

	location, err := u.downloader.Download(ctx, doc)
	if err != nil {
		return ExportResult{}, err
	}
	res.Location = location
	res.Mode = DeliveryDownload

	if req.SendToExternalApp {
		res.Mode = DeliveryFallback
		if u.linker != nil {
			res.DeepLink = u.linker.Link(u.fallbackMessage(doc.DepartmentName), req.UserAgent)
		}
	}
	return res, nil
}

// fallbackMessage is the chat text asking the user to attach the file.
func (u *exportUseCase) fallbackMessage(departmentName string) string {
	date := u.clock.Now().In(u.loc).Format("02.01.2006")
	return fmt.Sprintf("Інвентаризація: %s (%s)\n\nПрикрепите скачанный файл Excel к этому сообщению.", departmentName, date)
}
