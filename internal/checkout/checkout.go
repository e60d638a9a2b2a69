// Package checkout gates cart mutations behind a logged-in session and
// coordinates the points award with clearing the cart.
package checkout

import (
	"context"
	"log/slog"

	"github.com/Skotchmaster/levelup_storefront/internal/cart"
	"github.com/Skotchmaster/levelup_storefront/internal/events"
	"github.com/Skotchmaster/levelup_storefront/internal/logging"
	"github.com/Skotchmaster/levelup_storefront/internal/session"
)

const (
	NoticeLoginRequired = "Debes estar registrado para comprar en la tienda."
	LoginRedirect       = "/perfil?needLogin=1"
)

// Failure reasons reported in Result.Reason.
const (
	ReasonAuth   = "auth"
	ReasonEmpty  = "empty"
	ReasonPoints = "points"
)

type State string

const (
	StateIdle         State = "idle"
	StateCheckingAuth State = "checking_auth"
	StateBlocked      State = "blocked"
	StateAuthorized   State = "authorized"
	StateCompleted    State = "completed"
	StateFailed       State = "failed"
)

type CartStore interface {
	Load(ctx context.Context) []cart.LineItem
	Add(ctx context.Context, p cart.Product, qty int) []cart.LineItem
	Remove(ctx context.Context, code string) []cart.LineItem
	SetQty(ctx context.Context, code string, raw any) []cart.LineItem
	Clear(ctx context.Context) []cart.LineItem
}

type SessionStore interface {
	Current(ctx context.Context) *session.Session
	AwardPoints(ctx context.Context, points int) session.Result
}

type Result struct {
	OK       bool            `json:"ok"`
	Reason   string          `json:"reason,omitempty"`
	Msg      string          `json:"msg,omitempty"`
	Redirect string          `json:"redirect,omitempty"`
	Total    float64         `json:"total,omitempty"`
	Points   int             `json:"points,omitempty"`
	Items    []cart.LineItem `json:"items,omitempty"`
}

// Summary is the payload of the checkout event.
type Summary struct {
	Total  float64         `json:"total"`
	Points int             `json:"points"`
	Items  []cart.LineItem `json:"items"`
}

type Orchestrator struct {
	cart    CartStore
	session SessionStore
	bus     *events.Bus
	scope   string
}

func New(c CartStore, s SessionStore, bus *events.Bus, scope string) *Orchestrator {
	return &Orchestrator{cart: c, session: s, bus: bus, scope: scope}
}

type attempt struct {
	log   *slog.Logger
	state State
}

func (a *attempt) to(next State, args ...any) {
	a.log.Debug("checkout_state", append([]any{"from", string(a.state), "to", string(next)}, args...)...)
	a.state = next
}

// authorize moves the attempt out of CheckingAuth. A missing session blocks
// it, raises the login notice and yields the auth failure.
func (o *Orchestrator) authorize(ctx context.Context, a *attempt) (Result, bool) {
	a.to(StateCheckingAuth)
	if !o.session.Current(ctx).IsAuthenticated() {
		a.to(StateBlocked)
		o.bus.Publish(ctx, events.TopicNotice, o.scope, NoticeLoginRequired)
		return Result{OK: false, Reason: ReasonAuth, Msg: NoticeLoginRequired, Redirect: LoginRedirect}, false
	}
	a.to(StateAuthorized)
	return Result{}, true
}

func (o *Orchestrator) begin(ctx context.Context, op string) *attempt {
	return &attempt{
		log:   logging.FromContext(ctx).With("svc", "checkout."+op, "scope", o.scope),
		state: StateIdle,
	}
}

func (o *Orchestrator) AddToCart(ctx context.Context, p cart.Product, qty int) Result {
	a := o.begin(ctx, "add")
	if res, ok := o.authorize(ctx, a); !ok {
		a.log.Info("add_to_cart_blocked", "code", p.Code)
		return res
	}

	items := o.cart.Add(ctx, p, qty)
	a.to(StateCompleted)
	return Result{OK: true, Items: items, Total: cart.Total(items)}
}

func (o *Orchestrator) RemoveFromCart(ctx context.Context, code string) []cart.LineItem {
	return o.cart.Remove(ctx, code)
}

func (o *Orchestrator) SetQty(ctx context.Context, code string, raw any) []cart.LineItem {
	return o.cart.SetQty(ctx, code, raw)
}

func (o *Orchestrator) ClearCart(ctx context.Context) []cart.LineItem {
	return o.cart.Clear(ctx)
}

// Checkout awards the points earned by the cart and clears it. The cart is
// cleared only after the award succeeded; every failure leaves it as it was.
func (o *Orchestrator) Checkout(ctx context.Context) Result {
	a := o.begin(ctx, "checkout")
	if res, ok := o.authorize(ctx, a); !ok {
		a.log.Info("checkout_blocked", "reason", ReasonAuth)
		return res
	}

	items := o.cart.Load(ctx)
	if len(items) == 0 {
		a.to(StateFailed, "reason", ReasonEmpty)
		a.log.Info("checkout_failed", "reason", ReasonEmpty)
		return Result{OK: false, Reason: ReasonEmpty}
	}

	total := cart.Total(items)
	points := cart.Points(items)

	if res := o.session.AwardPoints(ctx, points); !res.OK {
		a.to(StateFailed, "reason", ReasonPoints)
		a.log.Warn("checkout_failed", "reason", ReasonPoints, "points", points, "msg", res.Msg)
		return Result{OK: false, Reason: ReasonPoints, Msg: res.Msg}
	}

	o.cart.Clear(ctx)
	a.to(StateCompleted)
	o.bus.Publish(ctx, events.TopicCheckout, o.scope, Summary{Total: total, Points: points, Items: items})
	a.log.Info("checkout_completed", "total", total, "points", points, "lines", len(items))
	return Result{OK: true, Total: total, Points: points}
}
