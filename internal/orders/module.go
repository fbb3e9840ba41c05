// Package orders is a small in-memory order service used by the go-params
// command to demonstrate declared parameters on real routes.
package orders

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gaborage/go-params/constraints"
	"github.com/gaborage/go-params/params"
	"github.com/gaborage/go-params/server"
	"github.com/gaborage/go-params/source"
	"github.com/gaborage/go-params/types"
)

const (
	moduleName      = "orders"
	orderRoute      = "/orders/:id"
	ordersRoute     = "/orders"
	attachmentRoute = "/orders/:id/attachments"

	maxAttachmentSize = 5 << 20
)

// Status is the lifecycle state of an order.
var Status = types.StrEnum("Status",
	types.EnumMember{Name: "PENDING", Value: "pending"},
	types.EnumMember{Name: "SHIPPED", Value: "shipped"},
	types.EnumMember{Name: "CANCELLED", Value: "cancelled"},
)

// Priority orders fulfilment.
var Priority = types.IntEnum("Priority",
	types.EnumMember{Name: "LOW", Value: 1},
	types.EnumMember{Name: "NORMAL", Value: 2},
	types.EnumMember{Name: "URGENT", Value: 3},
)

// Item is a single order line.
var Item = types.Record("Item",
	types.Required("sku", types.String),
	types.Required("quantity", types.Int),
	types.NotRequired("note", types.String),
)

// Order is the API representation of an order.
type Order struct {
	ID          int64            `json:"id"`
	Customer    string           `json:"customer"`
	Email       string           `json:"email"`
	Status      string           `json:"status"`
	Priority    string           `json:"priority"`
	Items       []map[string]any `json:"items"`
	Note        *string          `json:"note,omitempty"`
	DueDate     *string          `json:"due_date,omitempty"`
	Attachments []Attachment     `json:"attachments,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Attachment describes an uploaded file.
type Attachment struct {
	Label       string `json:"label"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// ListResponse is a page of orders.
type ListResponse struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
	Page   int64   `json:"page"`
	Size   int64   `json:"size"`
}

// Module serves the order routes from an in-memory store.
type Module struct {
	mu     sync.RWMutex
	nextID int64
	orders map[int64]*Order
	// idempotency keys of create requests already served
	keys map[uuid.UUID]int64
}

// NewModule returns an empty order module.
func NewModule() *Module {
	return &Module{
		nextID: 1,
		orders: make(map[int64]*Order),
		keys:   make(map[uuid.UUID]int64),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return moduleName
}

// RegisterRoutes declares the order routes on r.
func (m *Module) RegisterRoutes(hr *server.HandlerRegistry, r server.RouteRegistrar) error {
	orderID := params.MustNew("id", types.Int, source.FromPath,
		params.WithConstraints(constraints.Min(1)),
		params.WithDescription("Order identifier"),
		params.WithExample(int64(42)),
	)

	if err := server.GET(hr, r, orderRoute, m.getOrder,
		[]params.Param{orderID},
		server.WithModule(moduleName),
		server.WithTags(moduleName),
		server.WithSummary("Get an order"),
	); err != nil {
		return err
	}

	if err := server.GET(hr, r, ordersRoute, m.listOrders,
		[]params.Param{
			params.MustNew("page", types.Int, source.FromQuery,
				params.WithDefault(int64(1)),
				params.WithConstraints(constraints.Min(1))),
			params.MustNew("size", types.Int, source.FromQuery,
				params.WithDefault(int64(20)),
				params.WithConstraints(constraints.Min(1), constraints.Max(100))),
			params.MustNew("status", types.Optional(types.List(Status)), source.FromQuery,
				params.SplitCSV(),
				params.WithDescription("Filter by status, repeated or comma separated")),
			params.MustNew("customer", types.Optional(types.String),
				source.Multi{Sources: []source.Spec{source.FromQuery, source.FromHeader}},
				params.WithBlankNone(true)),
		},
		server.WithModule(moduleName),
		server.WithTags(moduleName),
		server.WithSummary("List orders"),
	); err != nil {
		return err
	}

	if err := server.POST(hr, r, ordersRoute, m.createOrder,
		[]params.Param{
			params.MustNew("customer", types.String, source.FromJSON,
				params.WithConstraints(constraints.MinLength(2), constraints.MaxLength(100))),
			params.MustNew("email", types.String, source.FromJSON,
				params.WithConstraints(constraints.Validate("email"))),
			params.MustNew("items", types.List(Item), source.FromJSON,
				params.WithConstraints(constraints.MinItems(1), constraints.MaxItems(50),
					constraints.FuncWithMessage(positiveQuantities))),
			params.MustNew("priority", Priority, source.FromJSON,
				params.WithDefault(types.EnumValue{Name: "NORMAL", Value: int64(2)})),
			params.MustNew("note", types.Optional(types.String), source.FromJSON,
				params.WithConstraints(constraints.MaxLength(500), constraints.DenyChars("<>"))),
			params.MustNew("due", types.Optional(types.Date), source.FromJSON),
			params.MustNew("idempotency_key", types.Optional(types.UUID), source.FromHeader,
				params.WithAlias("Idempotency-Key")),
		},
		server.WithModule(moduleName),
		server.WithTags(moduleName),
		server.WithSummary("Create an order"),
	); err != nil {
		return err
	}

	if err := server.DELETE(hr, r, orderRoute, m.cancelOrder,
		[]params.Param{
			orderID,
			params.MustNew("reason", types.Optional(types.String), source.FromQuery,
				params.Deprecated()),
		},
		server.WithModule(moduleName),
		server.WithTags(moduleName),
		server.WithSummary("Cancel an order"),
	); err != nil {
		return err
	}

	return server.POST(hr, r, attachmentRoute, m.addAttachment,
		[]params.Param{
			orderID,
			params.MustNew("label", types.String, source.FromForm,
				params.WithConstraints(constraints.Pattern(`^[\w .-]+$`))),
			params.MustNew("file", types.File, source.File{
				ContentTypes: []string{"image/png", "image/jpeg", "application/pdf"},
				MaxLength:    maxAttachmentSize,
			}),
		},
		server.WithModule(moduleName),
		server.WithTags(moduleName),
		server.WithSummary("Attach a file to an order"),
	)
}

func positiveQuantities(v any) (bool, string) {
	items, _ := v.([]any)
	for i, raw := range items {
		item, _ := raw.(map[string]any)
		if q, _ := item["quantity"].(int64); q <= 0 {
			return false, fmt.Sprintf("item %d quantity must be positive", i)
		}
	}
	return true, ""
}

func (m *Module) getOrder(args params.Values, _ server.HandlerContext) (Order, server.IAPIError) {
	id, _ := params.Get[int64](args, "id")

	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[id]
	if !ok {
		return Order{}, server.NewNotFoundError("Order")
	}
	return *order, nil
}

func (m *Module) listOrders(args params.Values, _ server.HandlerContext) (ListResponse, server.IAPIError) {
	page, _ := params.Get[int64](args, "page")
	size, _ := params.Get[int64](args, "size")
	statuses, _ := params.Get[[]any](args, "status")
	customer, hasCustomer := params.Get[string](args, "customer")

	wanted := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		wanted[s.(types.EnumValue).Value.(string)] = true
	}

	m.mu.RLock()
	matched := make([]Order, 0, len(m.orders))
	for _, o := range m.orders {
		if len(wanted) > 0 && !wanted[o.Status] {
			continue
		}
		if hasCustomer && o.Customer != customer {
			continue
		}
		matched = append(matched, *o)
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	resp := ListResponse{Orders: []Order{}, Total: len(matched), Page: page, Size: size}
	start := (page - 1) * size
	if start < int64(len(matched)) {
		end := min(start+size, int64(len(matched)))
		resp.Orders = matched[start:end]
	}
	return resp, nil
}

func (m *Module) createOrder(args params.Values, _ server.HandlerContext) (server.Result[Order], server.IAPIError) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key, hasKey := params.Get[uuid.UUID](args, "idempotency_key")
	if hasKey {
		if id, seen := m.keys[key]; seen {
			return server.NewResult(http.StatusOK, *m.orders[id]), nil
		}
	}

	customer, _ := params.Get[string](args, "customer")
	email, _ := params.Get[string](args, "email")
	items, _ := params.Get[[]any](args, "items")
	priority, _ := params.Get[types.EnumValue](args, "priority")

	order := &Order{
		ID:        m.nextID,
		Customer:  customer,
		Email:     email,
		Status:    "pending",
		Priority:  priority.Name,
		Items:     make([]map[string]any, 0, len(items)),
		CreatedAt: time.Now().UTC(),
	}
	for _, it := range items {
		order.Items = append(order.Items, it.(map[string]any))
	}
	if note, ok := params.Get[string](args, "note"); ok {
		order.Note = &note
	}
	if due, ok := params.Get[time.Time](args, "due"); ok {
		formatted := due.Format(time.DateOnly)
		order.DueDate = &formatted
	}

	m.orders[order.ID] = order
	m.nextID++
	if hasKey {
		m.keys[key] = order.ID
	}
	return server.Created(*order), nil
}

func (m *Module) cancelOrder(args params.Values, _ server.HandlerContext) (server.NoContentResult, server.IAPIError) {
	id, _ := params.Get[int64](args, "id")

	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return server.NoContentResult{}, server.NewNotFoundError("Order")
	}
	order.Status = "cancelled"
	return server.NoContent(), nil
}

func (m *Module) addAttachment(args params.Values, _ server.HandlerContext) (server.Result[Attachment], server.IAPIError) {
	id, _ := params.Get[int64](args, "id")
	label, _ := params.Get[string](args, "label")
	file, _ := params.Get[*multipart.FileHeader](args, "file")

	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return server.Result[Attachment]{}, server.NewNotFoundError("Order")
	}

	att := Attachment{
		Label:       label,
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Size:        file.Size,
	}
	order.Attachments = append(order.Attachments, att)
	return server.Created(att), nil
}
