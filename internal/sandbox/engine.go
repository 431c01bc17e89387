package sandbox

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/PageForge/backend/internal/logging"
	"github.com/GriffinCanCode/PageForge/backend/internal/sandbox/script"
	"github.com/GriffinCanCode/PageForge/backend/internal/shared/types"
)

// Engine is a headless render context. It owns a live document tree and
// drives it through the same command surface a browser frame exposes:
// commands go in, events come out, and every mutation happens on the
// single run-loop goroutine.
//
// A load-document command carries the channel token minted at bootstrap
// time. The engine adopts that token and drops any later command bearing
// a different one, so commands aimed at a replaced document die quietly.
type Engine struct {
	cfg    Config
	logger *logging.Logger

	commands chan *types.Message
	events   chan *types.Message
	scripts  chan *scriptRequest

	dom     *DOM
	channel string

	scriptPool *script.Pool

	state     atomic.Int32
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// scriptRequest runs code on the engine goroutine and replies synchronously
type scriptRequest struct {
	code  string
	reply chan scriptReply
}

type scriptReply struct {
	result *script.Result
	err    error
}

// NewEngine creates a render context and starts its run loop
func NewEngine(cfg Config, logger *logging.Logger) (*Engine, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	if cfg.ExecTimeout <= 0 {
		cfg.ExecTimeout = DefaultConfig().ExecTimeout
	}
	if cfg.ScriptPoolSize <= 0 {
		cfg.ScriptPoolSize = DefaultConfig().ScriptPoolSize
	}

	pool, err := script.NewPool(script.Config{
		Timeout:        cfg.ExecTimeout,
		EnableConsole:  true,
		EnableDocument: true,
	}, cfg.ScriptPoolSize)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:        cfg,
		logger:     logger,
		commands:   make(chan *types.Message, cfg.QueueSize),
		events:     make(chan *types.Message, cfg.QueueSize),
		scripts:    make(chan *scriptRequest),
		scriptPool: pool,
		done:       make(chan struct{}),
	}
	e.state.Store(int32(StateIdle))

	e.wg.Add(1)
	go e.run()

	return e, nil
}

// State returns the current lifecycle state
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Events returns the channel carrying events toward the host
func (e *Engine) Events() <-chan *types.Message {
	return e.events
}

// Send enqueues a command for the run loop
func (e *Engine) Send(msg *types.Message) error {
	if e.State() == StateClosed {
		return ErrClosed
	}
	select {
	case e.commands <- msg:
		return nil
	case <-e.done:
		return ErrClosed
	}
}

// RunScript executes code against the live tree and waits for the result.
// A mutation also surfaces as a content-changed event on the event channel.
func (e *Engine) RunScript(ctx context.Context, code string) (*script.Result, error) {
	if e.State() == StateClosed {
		return nil, ErrClosed
	}

	req := &scriptRequest{
		code:  code,
		reply: make(chan scriptReply, 1),
	}

	select {
	case e.scripts <- req:
	case <-e.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case rep := <-req.reply:
		return rep.result, rep.err
	case <-e.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the run loop and releases the script pool
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.state.Store(int32(StateClosed))
		close(e.done)
		e.wg.Wait()
		e.scriptPool.Close()
	})
}

// run is the engine goroutine. It is the only place the tree is touched.
func (e *Engine) run() {
	defer e.wg.Done()
	for {
		select {
		case <-e.done:
			return
		case msg := <-e.commands:
			e.handle(msg)
		case req := <-e.scripts:
			result, err := e.execute(req.code)
			req.reply <- scriptReply{result: result, err: err}
		}
	}
}

// handle dispatches one command
func (e *Engine) handle(msg *types.Message) {
	if msg == nil {
		return
	}

	// load-document carries the token for the incoming document, so it
	// bypasses the token check every other command goes through.
	if msg.Type == types.CommandLoadDocument {
		e.loadDocument(msg)
		return
	}

	if e.State() != StateReady {
		e.logger.Debug("command before document load",
			zap.String("type", string(msg.Type)))
		return
	}
	if msg.Channel != e.channel {
		e.logger.Debug("dropping command with stale channel token",
			zap.String("type", string(msg.Type)),
			zap.String("channel", msg.Channel))
		return
	}

	switch msg.Type {
	case types.CommandApplyProps:
		e.applyProps(msg)
	case types.CommandClearSelection:
		e.dom.ClearSelection()
	case types.CommandClick:
		e.click(msg)
	case types.CommandInput:
		e.input(msg)
	case types.CommandRunScript:
		e.runScriptCommand(msg)
	default:
		e.logger.Debug("ignoring unknown command",
			zap.String("type", string(msg.Type)))
	}
}

// loadDocument replaces the live tree and adopts the new channel token
func (e *Engine) loadDocument(msg *types.Message) {
	dom, err := LoadDOM(msg.Markup)
	if err != nil {
		e.logger.Error("failed to load document", zap.Error(err))
		return
	}

	e.dom = dom
	e.channel = msg.Channel
	e.state.Store(int32(StateReady))

	e.logger.Info("render context ready",
		zap.String("channel", msg.Channel),
		zap.Int("elements", dom.Count()))

	e.emit(types.NewReady(e.channel))
}

// applyProps patches one element and acknowledges with the full markup.
// An unknown identifier is silently ignored; no acknowledgment goes out
// and the host falls back to its acknowledgment timeout.
func (e *Engine) applyProps(msg *types.Message) {
	if !e.dom.ApplyProps(msg.ElementID, msg.Props) {
		e.logger.Debug("apply-props for unknown element",
			zap.String("element_id", msg.ElementID))
		return
	}

	markup, err := e.dom.Serialize()
	if err != nil {
		e.logger.Error("failed to serialize after apply-props", zap.Error(err))
		return
	}

	e.emit(types.NewPropsApplied(e.channel, markup, msg.Seq))
}

// click selects the target element and reports the selection
func (e *Engine) click(msg *types.Message) {
	sel, ok := e.dom.Select(msg.ElementID)
	if !ok {
		e.logger.Debug("click on unknown element",
			zap.String("element_id", msg.ElementID))
		return
	}
	e.emit(types.NewSelection(e.channel, sel.ElementID, sel.Tag, sel.Props))
}

// input replaces the target element's text and reports the new markup
func (e *Engine) input(msg *types.Message) {
	if !e.dom.SetText(msg.ElementID, msg.Text) {
		e.logger.Debug("input for unknown element",
			zap.String("element_id", msg.ElementID))
		return
	}

	markup, err := e.dom.Serialize()
	if err != nil {
		e.logger.Error("failed to serialize after input", zap.Error(err))
		return
	}

	e.emit(types.NewContentChanged(e.channel, markup))
}

// runScriptCommand executes fire-and-forget script from the command stream
func (e *Engine) runScriptCommand(msg *types.Message) {
	result, err := e.execute(msg.Script)
	if err != nil {
		e.logger.Warn("script execution failed", zap.Error(err))
		return
	}
	if result.Error != nil {
		e.logger.Warn("script returned error", zap.Error(result.Error))
	}
}

// execute runs code against the live tree through the runtime pool and
// emits content-changed when the script mutated the tree
func (e *Engine) execute(code string) (*script.Result, error) {
	if e.State() != StateReady {
		return nil, ErrNotReady
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.ExecTimeout)
	defer cancel()

	binding := script.NewBinding(e.dom.Document())
	result, err := e.scriptPool.Execute(ctx, code, binding)
	if err != nil {
		return nil, err
	}

	for _, entry := range result.Console {
		e.logger.Debug("script console",
			zap.String("level", entry.Level),
			zap.String("message", entry.Message))
	}

	if result.Mutated {
		markup, serr := e.dom.Serialize()
		if serr != nil {
			e.logger.Error("failed to serialize after script", zap.Error(serr))
		} else {
			e.emit(types.NewContentChanged(e.channel, markup))
		}
	}

	return result, nil
}

// emit delivers one event toward the host without deadlocking on shutdown
func (e *Engine) emit(msg *types.Message) {
	select {
	case e.events <- msg:
	case <-e.done:
	}
}
