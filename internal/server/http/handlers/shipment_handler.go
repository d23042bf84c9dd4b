package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/warehouse/internal/domain/model"
	"github.com/polkiloo/warehouse/internal/server/http/dto"
	"github.com/polkiloo/warehouse/internal/usecase"
)

// ShipmentHandler manages shipment endpoints.
type ShipmentHandler struct {
	facade ShipmentFacade
}

// NewShipmentHandler constructs ShipmentHandler.
func NewShipmentHandler(facade ShipmentFacade) *ShipmentHandler {
	return &ShipmentHandler{facade: facade}
}

// Create handles POST /api/shipments.
func (h *ShipmentHandler) Create(c *gin.Context) {
	var req dto.CreateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.facade.CreateShipment(c.Request.Context(), toShipmentInput(req, CurrentUserID(c)))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toShipmentResponse(result))
}

// Packages handles GET /api/orders/:id/packages.
func (h *ShipmentHandler) Packages(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "invalid order id")
		return
	}

	packages, err := h.facade.OrderPackages(c.Request.Context(), orderID)
	if err != nil {
		writeError(c, err)
		return
	}
	if len(packages) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	resp := make([]dto.PackageResponse, 0, len(packages))
	for _, p := range packages {
		resp = append(resp, toPackageResponse(p))
	}
	c.JSON(http.StatusOK, resp)
}

func toShipmentInput(req dto.CreateShipmentRequest, userID int64) usecase.CreateShipmentInput {
	in := usecase.CreateShipmentInput{
		OrderID:     req.OrderID,
		UserID:      userID,
		CarrierCode: req.CarrierCode,
		ServiceCode: req.ServiceCode,
		Notes:       req.Notes,
		Items:       toItems(req.Items),
	}
	for _, p := range req.Packages {
		spec := model.PackageSpec{
			Weight:      p.Weight,
			PackageCode: p.PackageCode,
			Items:       toItems(p.Items),
		}
		if p.Length != nil && p.Width != nil && p.Height != nil {
			spec.Dimensions = &model.Dimensions{Length: *p.Length, Width: *p.Width, Height: *p.Height}
		}
		in.Packages = append(in.Packages, spec)
	}
	if a := req.ShippingAddress; a != nil {
		in.ShippingAddress = &model.Address{
			Name:       a.Name,
			Company:    a.Company,
			Line1:      a.Address1,
			Line2:      a.Address2,
			City:       a.City,
			State:      a.State,
			PostalCode: a.PostalCode,
			Country:    a.Country,
			Phone:      a.Phone,
		}
	}
	return in
}

func toItems(items []dto.PackageItemRequest) []model.PackageItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]model.PackageItem, 0, len(items))
	for _, it := range items {
		item := model.PackageItem{SKU: it.SKU, Quantity: it.Quantity, ProductName: it.ProductName}
		if it.UnitPrice != nil {
			item.UnitPrice = *it.UnitPrice
		}
		out = append(out, item)
	}
	return out
}

func toShipmentResponse(r *usecase.ShipmentResult) dto.ShipmentResponse {
	resp := dto.ShipmentResponse{Success: true, Labels: []dto.LabelResponse{}}
	if r.Order != nil {
		resp.OrderID = r.Order.ID
		resp.OrderNumber = r.Order.OrderNumber
		resp.ShippingStatus = string(r.Order.ShippingStatus)
	}

	// Persisted packages carry the split cost; labels carry the tracking URL.
	if r.Labels != nil {
		for i, lp := range r.Labels.Packages {
			label := dto.LabelResponse{
				TrackingNumber: lp.TrackingNumber,
				Cost:           lp.Cost,
				LabelURL:       lp.LabelURL,
				TrackingURL:    lp.TrackingURL,
			}
			if i < len(r.Packages) {
				label.Cost = r.Packages[i].Cost
			}
			resp.Labels = append(resp.Labels, label)
		}
		for _, f := range r.Labels.Failures {
			resp.FailedPackages = append(resp.FailedPackages, dto.FailedLabelResponse{PackageNumber: f.Index + 1, Error: f.Err.Error()})
		}
		if len(resp.Labels) > 0 {
			resp.Label = resp.Labels[0]
			resp.Label.Cost = r.Labels.TotalCost
		}
	}

	if r.Task != nil {
		resp.ShippingTaskID = &r.Task.ID
		resp.ShippingTaskNumber = &r.Task.TaskNumber
	}
	if r.PendingSync != nil {
		resp.PendingSyncID = &r.PendingSync.ID
	}
	return resp
}

func toPackageResponse(p model.ShippingPackage) dto.PackageResponse {
	resp := dto.PackageResponse{
		ID:             p.ID,
		CarrierCode:    p.CarrierCode,
		ServiceCode:    p.ServiceCode,
		PackageCode:    p.PackageCode,
		TrackingNumber: p.TrackingNumber,
		LabelURL:       p.LabelURL,
		Cost:           p.Cost,
		Currency:       p.Currency,
		Weight:         p.Weight,
		Items:          make([]dto.PackageItemResponse, 0, len(p.Items)),
		CreatedAt:      p.CreatedAt,
	}
	for _, it := range p.Items {
		resp.Items = append(resp.Items, dto.PackageItemResponse{
			SKU:         it.SKU,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}
	return resp
}
