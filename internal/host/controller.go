package host

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/PageForge/backend/internal/bootstrap"
	"github.com/GriffinCanCode/PageForge/backend/internal/config"
	"github.com/GriffinCanCode/PageForge/backend/internal/logging"
	"github.com/GriffinCanCode/PageForge/backend/internal/sandbox/script"
	"github.com/GriffinCanCode/PageForge/backend/internal/shared/types"
	"github.com/GriffinCanCode/PageForge/backend/internal/shared/utils"
	"github.com/GriffinCanCode/PageForge/backend/internal/tagger"
)

// RenderContext is the command and event surface of one render context.
// The in-process engine satisfies it directly; a browser frame satisfies
// it through the websocket bridge.
type RenderContext interface {
	Send(msg *types.Message) error
	Events() <-chan *types.Message
	Close()
}

// ScriptRunner is implemented by contexts that execute script
// synchronously. Contexts without it still accept run-script commands,
// they just cannot report a result.
type ScriptRunner interface {
	RunScript(ctx context.Context, code string) (*script.Result, error)
}

// Controller owns the document markup and the current selection for one
// editing session. All updates flow through here: events from the render
// context mutate host state, and edit operations issue commands and wait
// for their effects where the protocol defines an acknowledgment.
type Controller struct {
	cfg    config.SandboxConfig
	rc     RenderContext
	boot   *bootstrap.Bootstrapper
	ident  *utils.DocumentIdentifier
	logger *logging.Logger

	mu        sync.RWMutex
	document  string
	docHash   string
	selection *types.Selection
	channel   string
	ready     chan struct{}

	seq   atomic.Uint64
	edits atomic.Uint64

	ackMu sync.Mutex
	acks  map[uint64]chan *types.Message

	subMu sync.Mutex
	subs  map[uint64]chan *types.Message
	subID uint64

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewController creates a controller bound to one render context and
// starts consuming its events.
func NewController(cfg config.SandboxConfig, rc RenderContext, boot *bootstrap.Bootstrapper, logger *logging.Logger) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}

	c := &Controller{
		cfg:    cfg,
		rc:     rc,
		boot:   boot,
		ident:  utils.NewDocumentIdentifier(nil),
		logger: logger,
		acks:   make(map[uint64]chan *types.Message),
		subs:   make(map[uint64]chan *types.Message),
		done:   make(chan struct{}),
	}

	c.wg.Add(1)
	go c.watch()

	return c
}

// watch consumes context events until the controller closes
func (c *Controller) watch() {
	defer c.wg.Done()
	for {
		select {
		case <-c.done:
			return
		case msg, ok := <-c.rc.Events():
			if !ok {
				return
			}
			c.dispatch(msg)
		}
	}
}

// dispatch routes one event. Events carrying a token other than the
// live channel belong to a superseded document and are dropped.
func (c *Controller) dispatch(msg *types.Message) {
	if msg == nil {
		return
	}

	c.mu.RLock()
	channel := c.channel
	c.mu.RUnlock()

	if msg.Channel != channel {
		c.logger.Debug("dropping event from superseded context",
			zap.String("type", string(msg.Type)),
			zap.String("channel", msg.Channel))
		return
	}

	switch msg.Type {
	case types.EventReady:
		c.signalReady()
	case types.EventSelection:
		c.setSelection(msg)
	case types.EventContentChanged:
		c.syncDocument(msg.Markup)
	case types.EventPropsApplied:
		c.syncDocument(msg.Markup)
		c.resolveAck(msg)
	default:
		c.logger.Debug("ignoring unknown event",
			zap.String("type", string(msg.Type)))
		return
	}

	c.publish(msg)
}

// publish mirrors an accepted event to every subscriber. The feed is
// lossy: a watcher that stops draining misses events instead of
// stalling dispatch.
func (c *Controller) publish(msg *types.Message) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for id, ch := range c.subs {
		select {
		case ch <- msg:
		default:
			c.logger.Debug("subscriber lagging, dropping event",
				zap.Uint64("subscriber", id),
				zap.String("type", string(msg.Type)))
		}
	}
}

// subscriberBuffer absorbs bursts like the selection plus
// content-changed pair a click produces
const subscriberBuffer = 32

// Subscribe returns a feed of the events this controller accepts from
// its render context. The cancel func releases the feed; the channel
// also closes when the controller does.
func (c *Controller) Subscribe() (<-chan *types.Message, func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	c.subID++
	id := c.subID
	ch := make(chan *types.Message, subscriberBuffer)
	c.subs[id] = ch

	cancel := func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// signalReady releases the SetDocument waiter for the live channel
func (c *Controller) signalReady() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready != nil {
		close(c.ready)
		c.ready = nil
	}
}

// setSelection stores the context's reported selection
func (c *Controller) setSelection(msg *types.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection = &types.Selection{
		ElementID: msg.ElementID,
		Tag:       msg.Tag,
		Props:     msg.Props.Clone(),
	}
}

// syncDocument adopts new markup from the context. The fingerprint
// check drops echoes that did not change anything, so repeated
// observer noise never counts as an edit.
func (c *Controller) syncDocument(markup string) {
	if markup == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ident.Changed(c.docHash, markup) {
		return
	}

	c.document = markup
	c.docHash = c.ident.Fingerprint(markup)
	c.edits.Add(1)

	c.logger.Debug("document synced",
		zap.String("fingerprint", c.ident.ShortFingerprint(c.docHash)))
}

// resolveAck hands a props-applied event to its waiting apply call
func (c *Controller) resolveAck(msg *types.Message) {
	c.ackMu.Lock()
	ch, ok := c.acks[msg.Seq]
	if ok {
		delete(c.acks, msg.Seq)
	}
	c.ackMu.Unlock()

	if ok {
		ch <- msg
	}
}

// stage bootstraps markup, installs it as the live document, and sends
// the load command. The returned channel closes on the ready handshake.
func (c *Controller) stage(markup string) (chan struct{}, error) {
	booted, err := c.boot.Bootstrap(markup)
	if err != nil {
		return nil, err
	}

	ready := make(chan struct{})
	channel := booted.Channel.String()

	c.mu.Lock()
	c.document = booted.Markup
	c.docHash = c.ident.Fingerprint(booted.Markup)
	c.selection = nil
	c.channel = channel
	c.ready = ready
	c.mu.Unlock()

	c.logger.Info("loading document",
		zap.String("channel", channel),
		zap.Int("tagged", booted.Tagged))

	if err := c.rc.Send(types.NewLoadDocument(channel, booted.Markup)); err != nil {
		return nil, err
	}
	return ready, nil
}

// SetDocument bootstraps markup, loads it into the render context, and
// waits for the ready handshake. Every call replaces the document
// wholesale: identifiers are preserved or assigned, injected assets are
// refreshed, a new channel token scopes the message stream, and any
// selection is gone.
func (c *Controller) SetDocument(ctx context.Context, markup string) error {
	ready, err := c.stage(markup)
	if err != nil {
		return err
	}

	select {
	case <-ready:
		return nil
	case <-time.After(c.cfg.ReadyTimeout):
		return ErrReadyTimeout
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
}

// StageDocument installs a document without waiting for the handshake.
// A context that attaches after the fact, like a browser frame that has
// not opened its stream yet, reports ready once it comes up.
func (c *Controller) StageDocument(markup string) error {
	_, err := c.stage(markup)
	return err
}

// Document returns the current markup in its bootstrapped form
func (c *Controller) Document() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.document
}

// Selection returns a copy of the current selection, nil when nothing
// is selected
func (c *Controller) Selection() *types.Selection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selection.Clone()
}

// ApplyProps patches one element and waits for the acknowledgment. An
// empty elementID targets the current selection. The returned error is
// ErrApplyTimeout when the context never acknowledged, which is how a
// patch against a vanished element surfaces.
func (c *Controller) ApplyProps(ctx context.Context, elementID string, props types.PropertyPatch) error {
	c.mu.RLock()
	if c.document == "" {
		c.mu.RUnlock()
		return ErrNoDocument
	}
	if elementID == "" {
		if c.selection == nil {
			c.mu.RUnlock()
			return ErrNoSelection
		}
		elementID = c.selection.ElementID
	}
	channel := c.channel
	c.mu.RUnlock()

	seq := c.seq.Add(1)
	ack := make(chan *types.Message, 1)

	c.ackMu.Lock()
	c.acks[seq] = ack
	c.ackMu.Unlock()
	defer func() {
		c.ackMu.Lock()
		delete(c.acks, seq)
		c.ackMu.Unlock()
	}()

	if err := c.rc.Send(types.NewApplyProps(channel, elementID, props, seq)); err != nil {
		return err
	}

	select {
	case <-ack:
		c.refreshSelection(elementID, props)
		return nil
	case <-time.After(c.cfg.AckTimeout):
		c.logger.Warn("apply-props not acknowledged",
			zap.String("element_id", elementID),
			zap.Uint64("seq", seq))
		return ErrApplyTimeout
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
}

// refreshSelection folds applied content props into the selection
// snapshot so a subsequent read reflects the patch
func (c *Controller) refreshSelection(elementID string, props types.PropertyPatch) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selection == nil || c.selection.ElementID != elementID {
		return
	}
	if c.selection.Props == nil {
		c.selection.Props = types.PropertyPatch{}
	}
	for name, value := range props {
		if name == types.PropInnerHTML || name == types.PropSrc {
			c.selection.Props[name] = value
		}
	}
}

// ClearSelection drops the selection on both sides. Clearing with
// nothing selected is a no-op; no event comes back either way.
func (c *Controller) ClearSelection() error {
	c.mu.Lock()
	channel := c.channel
	c.selection = nil
	c.mu.Unlock()

	if channel == "" {
		return ErrNoDocument
	}
	return c.rc.Send(types.NewClearSelection(channel))
}

// Click selects an element programmatically. The resulting selection
// event flows back through the normal dispatch path.
func (c *Controller) Click(elementID string) error {
	c.mu.RLock()
	channel := c.channel
	loaded := c.document != ""
	c.mu.RUnlock()

	if !loaded {
		return ErrNoDocument
	}
	return c.rc.Send(types.NewClick(channel, elementID))
}

// Input replaces an element's text content, mirroring an inline edit
func (c *Controller) Input(elementID, text string) error {
	c.mu.RLock()
	channel := c.channel
	loaded := c.document != ""
	c.mu.RUnlock()

	if !loaded {
		return ErrNoDocument
	}
	return c.rc.Send(types.NewInput(channel, elementID, text))
}

// Script runs code in the render context. Contexts with a synchronous
// runner return the execution result; others get the command
// fire-and-forget and return nil.
func (c *Controller) Script(ctx context.Context, code string) (*script.Result, error) {
	c.mu.RLock()
	channel := c.channel
	loaded := c.document != ""
	c.mu.RUnlock()

	if !loaded {
		return nil, ErrNoDocument
	}

	if runner, ok := c.rc.(ScriptRunner); ok {
		return runner.RunScript(ctx, code)
	}
	return nil, c.rc.Send(types.NewRunScript(channel, code))
}

// Export returns the document with every editor fingerprint stripped:
// no injected nodes, no selection class, no contenteditable. Stable
// identifiers stay in the output.
func (c *Controller) Export() (string, error) {
	c.mu.RLock()
	document := c.document
	c.mu.RUnlock()

	if document == "" {
		return "", ErrNoDocument
	}
	return bootstrap.Strip(document)
}

// Elements counts the tagged elements in the current document
func (c *Controller) Elements() int {
	c.mu.RLock()
	document := c.document
	c.mu.RUnlock()

	if document == "" {
		return 0
	}
	doc, err := tagger.Parse(document)
	if err != nil {
		return 0
	}
	return tagger.Count(doc)
}

// Edits returns how many times the document changed since load
func (c *Controller) Edits() uint64 {
	return c.edits.Load()
}

// Channel returns the live channel token, empty before the first load
func (c *Controller) Channel() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

// Close stops event dispatch and shuts the render context down
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.wg.Wait()
		c.rc.Close()

		c.subMu.Lock()
		for id, ch := range c.subs {
			delete(c.subs, id)
			close(ch)
		}
		c.subMu.Unlock()
	})
}
