package handler

import (
	"time"

	"go-inventory-ledger/internal/importer"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// localTimeLayout is how history timestamps are shown to people.
const localTimeLayout = "2006-01-02 15:04:05"

type InventoryHandler struct {
	service       service.InventoryService
	displayOffset time.Duration
}

// NewInventoryHandler builds the item and history endpoints. History times
// are stored in UTC and shown shifted by displayOffset.
func NewInventoryHandler(s service.InventoryService, displayOffset time.Duration) *InventoryHandler {
	return &InventoryHandler{service: s, displayOffset: displayOffset}
}

type editItemRequest struct {
	Name string `json:"name"`
	Spec string `json:"spec"`
}

type adjustStockRequest struct {
	ChangeType model.ChangeType `json:"change_type"`
	Quantity   int              `json:"quantity"`
	Manager    string           `json:"manager"`
}

// historyEntry adds the display time to a ledger row.
type historyEntry struct {
	model.History
	CreatedAtLocal string `json:"created_at_local"`
}

func itemID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}

// GetItems lists items filtered by ?name= and ?spec=. An ?error= code from a
// previous action is echoed back for the client to display.
func (h *InventoryHandler) GetItems(c *fiber.Ctx) error {
	name := c.Query("name")
	spec := c.Query("spec")

	items, err := h.service.QueryItems(c.UserContext(), name, spec)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"data":   items,
		"filter": fiber.Map{"name": name, "spec": spec},
		"error":  c.Query("error"),
	})
}

func (h *InventoryHandler) RegisterItem(c *fiber.Ctx) error {
	var req service.RegisterItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	res, err := h.service.RegisterItem(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}

	if !res.Created {
		return c.JSON(fiber.Map{"message": "Item already exists", "data": res.Item, "created": false})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Item created", "data": res.Item, "created": true})
}

func (h *InventoryHandler) UpdateItem(c *fiber.Ctx) error {
	id, err := itemID(c)
	if err != nil {
		return badRequest(c, "Invalid item ID")
	}

	var req editItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	item, err := h.service.EditItemIdentity(c.UserContext(), id, req.Name, req.Spec)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Item updated", "data": item})
}

func (h *InventoryHandler) DeleteItem(c *fiber.Ctx) error {
	id, err := itemID(c)
	if err != nil {
		return badRequest(c, "Invalid item ID")
	}

	deleted, err := h.service.DeleteItem(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	if !deleted {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   CodeNotEmpty,
			"message": "Only items with zero quantity can be deleted",
		})
	}
	return c.JSON(fiber.Map{"message": "Item deleted"})
}

func (h *InventoryHandler) AdjustStock(c *fiber.Ctx) error {
	id, err := itemID(c)
	if err != nil {
		return badRequest(c, "Invalid item ID")
	}

	var req adjustStockRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	item, err := h.service.AdjustStock(c.UserContext(), service.AdjustStockRequest{
		ItemID:     id,
		ChangeType: req.ChangeType,
		Quantity:   req.Quantity,
		Manager:    req.Manager,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock updated", "data": item})
}

func (h *InventoryHandler) Increment(c *fiber.Ctx) error {
	id, err := itemID(c)
	if err != nil {
		return badRequest(c, "Invalid item ID")
	}

	item, err := h.service.Increment(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": item})
}

func (h *InventoryHandler) Decrement(c *fiber.Ctx) error {
	id, err := itemID(c)
	if err != nil {
		return badRequest(c, "Invalid item ID")
	}

	item, err := h.service.Decrement(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": item})
}

// ImportItems accepts a multipart "file" field holding a .csv or .xlsx sheet.
func (h *InventoryHandler) ImportItems(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "Missing upload field 'file'")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to open upload")
	}
	defer file.Close()

	rows, err := importer.Read(fileHeader.Filename, file)
	if err != nil {
		return writeError(c, err)
	}

	report, err := h.service.BulkImport(c.UserContext(), rows)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Import finished", "data": report})
}

func (h *InventoryHandler) GetHistory(c *fiber.Ctx) error {
	histories, err := h.service.ListHistory(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": h.localize(histories)})
}

func (h *InventoryHandler) GetItemHistory(c *fiber.Ctx) error {
	id, err := itemID(c)
	if err != nil {
		return badRequest(c, "Invalid item ID")
	}

	histories, err := h.service.ItemHistory(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": h.localize(histories)})
}

func (h *InventoryHandler) localize(histories []model.History) []historyEntry {
	entries := make([]historyEntry, len(histories))
	for i, hist := range histories {
		entries[i] = historyEntry{
			History:        hist,
			CreatedAtLocal: hist.CreatedAt.UTC().Add(h.displayOffset).Format(localTimeLayout),
		}
	}
	return entries
}
