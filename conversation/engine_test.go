package conversation_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"food-order-bot/conversation"
	"food-order-bot/models"
	"food-order-bot/notify"
	"food-order-bot/orders"
	"food-order-bot/stock"
	"food-order-bot/store"
	"food-order-bot/testutil"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg notify.Message) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return "wamid.out", r.err
}

func (r *recordingSender) since(n int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, m := range r.sent[n:] {
		out = append(out, m.Text)
	}
	return out
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

type nopNotifier struct{}

func (nopNotifier) Dispatch(notify.Message, logrus.Fields) {}

type harness struct {
	t      *testing.T
	db     *gorm.DB
	fx     *testutil.Fixture
	engine *conversation.Engine
	states *conversation.MemoryStore
	sender *recordingSender
	orders *store.Orders
	seq    int
}

func newHarness(t *testing.T, pattyStock float64) *harness {
	t.Helper()
	db := testutil.OpenDB(t)
	h := &harness{
		t:      t,
		db:     db,
		fx:     testutil.Seed(t, db, pattyStock),
		states: conversation.NewMemoryStore(time.Minute),
		sender: &recordingSender{},
		orders: store.NewOrders(db),
	}
	log := testutil.Logger()
	catalog := store.NewCatalog(db)
	svc := orders.NewService(h.orders, catalog, nopNotifier{}, nil, time.UTC, log)
	h.engine = conversation.NewEngine(conversation.Deps{
		Catalog: catalog,
		Orders:  svc,
		Stock:   stock.NewVerifier(catalog, store.NewLedger(db), false, log),
		States:  h.states,
		Sender:  h.sender,
		Region:  "AR",
		Log:     log,
	})
	return h
}

const customer = "5491122223333"

// say sends text as customer and returns the replies it produced.
func (h *harness) say(from, text string) []string {
	h.t.Helper()
	h.seq++
	before := h.sender.count()
	err := h.engine.Handle(context.Background(), conversation.Event{
		TenantID:          h.fx.Tenant.ID,
		CustomerChannelID: from,
		Text:              text,
		ContactName:       "Ana",
		MessageID:         fmt.Sprintf("wamid.%d", h.seq),
	})
	require.NoError(h.t, err, "message %q", text)
	return h.sender.since(before)
}

func (h *harness) script(from string, texts ...string) []string {
	var last []string
	for _, text := range texts {
		last = h.say(from, text)
	}
	return last
}

func (h *harness) state(from string) *conversation.State {
	h.t.Helper()
	s, err := h.states.Get(context.Background(), conversation.Key(h.fx.Tenant.ID, from))
	require.NoError(h.t, err)
	return s
}

func (h *harness) placedOrders() []models.Order {
	h.t.Helper()
	list, err := h.orders.List(context.Background(), h.fx.Tenant.ID, store.OrderFilter{})
	require.NoError(h.t, err)
	return list
}

var happyPath = []string{
	"pedir",
	"1",                        // Hamburguesa Clásica
	"2",                        // quantity
	"no",                       // extras
	"no",                       // customization
	"no",                       // more products
	"1",                        // delivery
	"1",                        // zone Centro
	"Calle Falsa 123, depto 2", // address
	"portón negro",             // notes
	"1",                        // cash
}

func TestHappyPathDeliveryOrder(t *testing.T) {
	h := newHarness(t, 10)

	h.say(customer, "pedir")
	assert.Equal(t, conversation.StepSelectingProduct, h.state(customer).Step)

	replies := h.script(customer, happyPath[1:]...)
	s := h.state(customer)
	require.NotNil(t, s)
	assert.Equal(t, conversation.StepConfirmingOrder, s.Step)
	require.Len(t, replies, 2)
	assert.Contains(t, replies[0], "Subtotal: $5.000")
	assert.Contains(t, replies[0], "Envío: $300")
	assert.Contains(t, replies[0], "Total: $5.300")

	replies = h.say(customer, "confirmar")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "Recibimos tu pedido")
	assert.Nil(t, h.state(customer), "state cleared after the order")

	placed := h.placedOrders()
	require.Len(t, placed, 1)
	o := placed[0]
	assert.Equal(t, models.StatusPending, o.Status)
	assert.Equal(t, 5000.0, o.Subtotal)
	assert.Equal(t, 300.0, o.DeliveryCost)
	assert.Equal(t, 5300.0, o.Total)
	assert.Equal(t, models.OrderTypeDelivery, o.OrderType)
	assert.Equal(t, "Centro", o.DeliveryZoneName)
	assert.Equal(t, "Calle Falsa 123, depto 2", o.DeliveryAddress)
	assert.Equal(t, "portón negro", o.DeliveryNotes)
	assert.Equal(t, models.PaymentCash, o.PaymentMethod)
	assert.Equal(t, "Ana", o.CustomerName)
	assert.Equal(t, "+5491122223333", o.CustomerPhone)
	assert.Equal(t, customer, o.ChannelChatID)
	assert.Equal(t, 10.0, testutil.Stock(t, h.db, h.fx.Patty.ID), "placing an order reserves nothing")
}

func TestInsufficientStockAbortsAtPayment(t *testing.T) {
	h := newHarness(t, 1)

	replies := h.script(customer, happyPath...)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "No hay stock suficiente de Medallón")
	assert.Nil(t, h.state(customer))
	assert.Empty(t, h.placedOrders())
	assert.Equal(t, 1.0, testutil.Stock(t, h.db, h.fx.Patty.ID))
}

func TestStockRecheckedBeforeCreating(t *testing.T) {
	h := newHarness(t, 10)
	h.script(customer, happyPath...)
	require.Equal(t, conversation.StepConfirmingOrder, h.state(customer).Step)

	require.NoError(t, h.db.Model(&models.Product{}).Where("id = ?", h.fx.Burger.ID).
		Update("available", false).Error)

	replies := h.say(customer, "confirmar")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "ya no está disponible")
	assert.Nil(t, h.state(customer))
	assert.Empty(t, h.placedOrders())
}

func TestCancelFromEveryStep(t *testing.T) {
	h := newHarness(t, 10)
	for n := 0; n <= len(happyPath); n++ {
		from := fmt.Sprintf("54911000000%02d", n)
		h.script(from, happyPath[:n]...)

		h.say(from, "Cancelar")
		assert.Nil(t, h.state(from), "after %d messages", n)

		h.say(from, "hola")
		s := h.state(from)
		require.NotNil(t, s)
		assert.Equal(t, conversation.StepIdle, s.Step)
		assert.Empty(t, s.Cart)
	}
	assert.Empty(t, h.placedOrders())
}

func TestExtrasAggregateAndCustomizationsDedupe(t *testing.T) {
	h := newHarness(t, 10)
	h.script(customer, "pedir", "1", "1")
	require.Equal(t, conversation.StepSelectingExtras, h.state(customer).Step)

	// extras are listed by name: 1 Huevo frito, 2 Salsa cheddar
	h.script(customer, "2", "2", "1", "listo")
	s := h.state(customer)
	require.Len(t, s.Cart, 1)
	require.Len(t, s.Cart[0].Extras, 2)
	assert.Equal(t, "Salsa cheddar", s.Cart[0].Extras[0].Extra.Name)
	assert.Equal(t, 2, s.Cart[0].Extras[0].Quantity)
	assert.Equal(t, 1, s.Cart[0].Extras[1].Quantity)

	h.script(customer, "si", "1", "1")
	replies := h.say(customer, "1")
	assert.Contains(t, replies[0], "Ya habías elegido")
	h.script(customer, "listo", "2", "2", "listo", "3")

	s = h.state(customer)
	assert.Equal(t, conversation.StepAskingMoreProducts, s.Step)
	require.Len(t, s.Cart[0].Customizations, 2)
	assert.Equal(t, models.CustomizationAdd, s.Cart[0].Customizations[0].Type)
	assert.Equal(t, "Cheddar", s.Cart[0].Customizations[0].IngredientName)
	assert.Equal(t, models.CustomizationRemove, s.Cart[0].Customizations[1].Type)
	assert.Equal(t, "Cebolla", s.Cart[0].Customizations[1].IngredientName)

	replies = h.script(customer, "no", "2", "2")
	assert.Contains(t, replies[0], "Total: $3.800")
	h.say(customer, "confirmar")

	placed := h.placedOrders()
	require.Len(t, placed, 1)
	assert.Equal(t, 3800.0, placed[0].Total)
	assert.Equal(t, models.OrderTypePickup, placed[0].OrderType)
	assert.Zero(t, placed[0].DeliveryCost)
	require.Len(t, placed[0].Items, 1)
	assert.Len(t, placed[0].Items[0].Customizations, 2)
	assert.Len(t, placed[0].Items[0].Extras, 2)
}

func TestMultipleProducts(t *testing.T) {
	h := newHarness(t, 10)
	h.script(customer, "pedir", "1", "1", "no", "no", "si", "2", "3", "no", "no", "no")
	s := h.state(customer)
	require.Len(t, s.Cart, 2)
	assert.Equal(t, "Papas Fritas", s.Cart[1].Product.Name)
	assert.Equal(t, conversation.StepSelectingOrderType, s.Step)

	replies := h.script(customer, "2", "1")
	assert.Contains(t, replies[0], "Total: $6.100")
}

func TestBareNumberStartsOrder(t *testing.T) {
	h := newHarness(t, 10)

	replies := h.say(customer, "2")
	s := h.state(customer)
	assert.Equal(t, conversation.StepSelectingQuantity, s.Step)
	require.NotNil(t, s.CurrentProduct)
	assert.Equal(t, h.fx.Fries.ID, s.CurrentProduct.ID)
	assert.Contains(t, replies[0], "Papas Fritas")

	other := "5491199999999"
	replies = h.say(other, "9")
	assert.Equal(t, conversation.StepSelectingProduct, h.state(other).Step)
	require.Len(t, replies, 2)
	assert.Contains(t, replies[1], "Menú")
}

func TestInvalidInputRepromptsInPlace(t *testing.T) {
	h := newHarness(t, 10)

	h.say(customer, "pedir")
	h.say(customer, "hamburguesa")
	assert.Equal(t, conversation.StepSelectingProduct, h.state(customer).Step)

	h.say(customer, "1")
	for _, bad := range []string{"0", "11", "dos"} {
		h.say(customer, bad)
		s := h.state(customer)
		assert.Equal(t, conversation.StepSelectingQuantity, s.Step, bad)
		assert.Empty(t, s.Cart)
	}

	h.script(customer, "1", "no", "no", "no", "1", "1")
	replies := h.say(customer, "Calle 1")
	assert.Contains(t, replies[0], "incompleta")
	assert.Equal(t, conversation.StepAwaitingAddress, h.state(customer).Step)

	h.say(customer, "Av. Siempre Viva 742")
	h.say(customer, "no")
	assert.Equal(t, conversation.StepAwaitingDeliveryNotes, h.state(customer).Step)
	h.say(customer, "sin notas")
	s := h.state(customer)
	assert.Equal(t, conversation.StepSelectingPayment, s.Step)
	assert.Empty(t, s.DeliveryNotes)

	h.say(customer, "3")
	assert.Equal(t, conversation.StepSelectingPayment, h.state(customer).Step)
}

func TestSignedQuantityIsRejected(t *testing.T) {
	h := newHarness(t, 10)

	h.script(customer, "pedir", "1")
	for _, bad := range []string{"-3", "+5", "- 3"} {
		replies := h.say(customer, bad)
		require.Len(t, replies, 1, bad)
		assert.Contains(t, replies[0], "del 1 al 10", bad)
		s := h.state(customer)
		assert.Equal(t, conversation.StepSelectingQuantity, s.Step, bad)
		assert.Empty(t, s.Cart, bad)
	}

	h.say(customer, "3")
	s := h.state(customer)
	assert.Equal(t, conversation.StepSelectingExtras, s.Step)
	require.Len(t, s.Cart, 1)
	assert.Equal(t, 3, s.Cart[0].Quantity)
}

func TestIdleReplies(t *testing.T) {
	h := newHarness(t, 10)

	replies := h.say(customer, "¡Hola!")
	assert.Contains(t, replies[0], "La Hamburguesería")
	replies = h.say(customer, "MENÚ")
	assert.Contains(t, replies[0], "comandos")
	replies = h.say(customer, "qwerty")
	assert.Contains(t, replies[0], "No te entendí")
	assert.Equal(t, conversation.StepIdle, h.state(customer).Step)
}

func TestTenantCapabilitiesDriveCheckout(t *testing.T) {
	h := newHarness(t, 10)
	require.NoError(t, h.db.Model(&models.Tenant{}).Where("id = ?", h.fx.Tenant.ID).
		Update("has_delivery", false).Error)

	h.script(customer, "pedir", "1", "1", "no", "no", "no")
	s := h.state(customer)
	assert.Equal(t, conversation.StepSelectingPayment, s.Step)
	assert.Equal(t, models.OrderTypePickup, s.OrderType)

	require.NoError(t, h.db.Model(&models.Tenant{}).Where("id = ?", h.fx.Tenant.ID).
		Updates(map[string]interface{}{"has_delivery": true, "has_pickup": false}).Error)
	other := "5491199999999"
	h.script(other, "pedir", "1", "1", "no", "no", "no")
	s = h.state(other)
	assert.Equal(t, conversation.StepSelectingDeliveryZone, s.Step)
	assert.Equal(t, models.OrderTypeDelivery, s.OrderType)
}

func TestDuplicateMessageIsDropped(t *testing.T) {
	h := newHarness(t, 10)
	ev := conversation.Event{TenantID: h.fx.Tenant.ID, CustomerChannelID: customer, Text: "pedir", MessageID: "wamid.dup"}

	require.NoError(t, h.engine.Handle(context.Background(), ev))
	sent := h.sender.count()
	require.NoError(t, h.engine.Handle(context.Background(), ev))
	assert.Equal(t, sent, h.sender.count())
	assert.Equal(t, conversation.StepSelectingProduct, h.state(customer).Step)
}

func TestSendFailureDoesNotLoseOrder(t *testing.T) {
	h := newHarness(t, 10)
	h.sender.err = errors.New("channel down")

	h.script(customer, append(append([]string{}, happyPath...), "confirmar")...)
	assert.Len(t, h.placedOrders(), 1)
	assert.Nil(t, h.state(customer))
}

func TestConcurrentMessagesAreSerialized(t *testing.T) {
	h := newHarness(t, 10)
	h.script(customer, "pedir", "1", "1")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = h.engine.Handle(context.Background(), conversation.Event{
				TenantID: h.fx.Tenant.ID, CustomerChannelID: customer, Text: "2",
				MessageID: fmt.Sprintf("wamid.concurrent.%d", i),
			})
		}(i)
	}
	wg.Wait()

	s := h.state(customer)
	require.Len(t, s.Cart, 1)
	require.Len(t, s.Cart[0].Extras, 1)
	assert.Equal(t, 4, s.Cart[0].Extras[0].Quantity)
}

func TestRepliesGoToTheCustomerFromTheTenantNumber(t *testing.T) {
	h := newHarness(t, 10)
	h.say(customer, "hola")
	h.sender.mu.Lock()
	defer h.sender.mu.Unlock()
	require.NotEmpty(t, h.sender.sent)
	msg := h.sender.sent[len(h.sender.sent)-1]
	assert.Equal(t, "phone-1", msg.From)
	assert.Equal(t, customer, msg.To)
	assert.True(t, strings.HasPrefix(msg.Text, "¡Hola!"))
}
