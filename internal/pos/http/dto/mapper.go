package dto

import "github.com/allisson/possync/internal/pos/domain"

// MapSaleToResponse converts a domain sale to its API representation.
func MapSaleToResponse(sale *domain.Sale) SaleResponse {
	var shiftID *string
	if sale.ShiftID != nil {
		s := sale.ShiftID.String()
		shiftID = &s
	}

	return SaleResponse{
		ID:              sale.ID.String(),
		ShiftID:         shiftID,
		Lines:           sale.Lines,
		TotalCents:      sale.TotalCents,
		PaymentMethod:   sale.PaymentMethod,
		OccurredAt:      sale.OccurredAt,
		ServerInvoiceID: sale.ServerInvoiceID,
		ServerPaymentID: sale.ServerPaymentID,
		SyncStatus:      string(sale.SyncStatus),
		SyncAttempts:    sale.SyncAttempts,
		SyncError:       sale.SyncError,
		CreatedAt:       sale.CreatedAt,
	}
}

// MapSalesToListResponse converts a slice of sales.
func MapSalesToListResponse(sales []*domain.Sale) ListSalesResponse {
	response := ListSalesResponse{
		Sales: make([]SaleResponse, len(sales)),
	}
	for i, sale := range sales {
		response.Sales[i] = MapSaleToResponse(sale)
	}
	return response
}

// MapShiftToResponse converts a domain shift session to its API representation.
func MapShiftToResponse(shift *domain.ShiftSession) ShiftResponse {
	return ShiftResponse{
		ID:                 shift.ID.String(),
		DeviceID:           shift.DeviceID,
		OpenedAt:           shift.OpenedAt,
		ClosedAt:           shift.ClosedAt,
		OpeningFloatCents:  shift.OpeningFloatCents,
		ClosingAmountCents: shift.ClosingAmountCents,
		ServerShiftID:      shift.ServerShiftID,
		SyncStatus:         string(shift.SyncStatus),
		SyncAttempts:       shift.SyncAttempts,
		SyncError:          shift.SyncError,
	}
}

// MapCashEventToResponse converts a domain cash event to its API representation.
func MapCashEventToResponse(event *domain.ShiftCashEvent) CashEventResponse {
	return CashEventResponse{
		ID:            event.ID.String(),
		ShiftID:       event.ShiftID.String(),
		Kind:          string(event.Kind),
		AmountCents:   event.AmountCents,
		Note:          event.Note,
		OccurredAt:    event.OccurredAt,
		ServerEventID: event.ServerEventID,
		SyncStatus:    string(event.SyncStatus),
		SyncAttempts:  event.SyncAttempts,
		SyncError:     event.SyncError,
	}
}

// MapCashEventsToListResponse converts a slice of cash events.
func MapCashEventsToListResponse(events []*domain.ShiftCashEvent) ListCashEventsResponse {
	response := ListCashEventsResponse{
		CashEvents: make([]CashEventResponse, len(events)),
	}
	for i, event := range events {
		response.CashEvents[i] = MapCashEventToResponse(event)
	}
	return response
}
