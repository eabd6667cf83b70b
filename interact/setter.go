// CLAUDE:SUMMARY Form value setting via ordered strategy cascades: native set, scripted DOM events with GeneXus hooks, keystroke simulation.
package interact

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// The portal runs GeneXus-generated client code that validates and reformats
// input on specific DOM events. Setting a value without firing those events
// desyncs the client-side state from what gets submitted, so the scripted
// strategies dispatch input/change/blur and invoke the gx hooks when present.

const jsSetSelectValue = `(val) => {
	this.value = val;
	this.dispatchEvent(new Event('input', {bubbles:true}));
	this.dispatchEvent(new Event('change', {bubbles:true}));
	this.dispatchEvent(new Event('blur', {bubbles:true}));
	try { if (window.gx && gx.evt && typeof gx.evt.onchange === 'function') gx.evt.onchange(this); } catch(e){}
	try { if (window.gx && gx.evt && typeof gx.evt.onblur === 'function') gx.evt.onblur(this); } catch(e){}
	return true;
}`

const jsSetInputValue = `(val) => {
	try { this.focus && this.focus(); } catch(e) {}
	this.value = val;
	this.dispatchEvent(new Event('input', {bubbles:true}));
	this.dispatchEvent(new Event('change', {bubbles:true}));
	this.dispatchEvent(new Event('blur', {bubbles:true}));
	try { if (window.gx && gx.evt && typeof gx.evt.onchange === 'function') gx.evt.onchange(this); } catch(e){}
	try { if (window.gx && gx.date && typeof gx.date.valid_date === 'function') {
		try { gx.date.valid_date(this, 10, 'DMY', 0, 24, 'spa', false, 0); } catch(e){}
	} } catch(e) {}
	return true;
}`

const jsDispatchBlur = `() => { this.dispatchEvent(new Event('blur', {bubbles:true})); }`

// Strategy is one way of performing a setter operation. An error means the
// strategy failed and the next one should run.
type Strategy struct {
	Name string
	Fn   func() error
}

// Setter sets values into form controls using fallback strategy chains.
// All methods return success/failure; none raise. A failed set is reported
// so the operator sees the gap, but the workflow proceeds with partial data.
type Setter struct {
	// TypeDelay is the inter-keystroke delay of the simulated-typing
	// fallback. Default 80ms — masked date inputs drop faster input.
	TypeDelay time.Duration

	Logger *slog.Logger
}

func (s *Setter) defaults() {
	if s.TypeDelay <= 0 {
		s.TypeDelay = 80 * time.Millisecond
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
}

// SetSelect sets a dropdown to the option with the given value attribute.
func (s *Setter) SetSelect(loc Located, selector, value string) bool {
	s.defaults()
	el := loc.Element
	optionSel := fmt.Sprintf(`option[value=%q]`, value)

	return runChain(s.Logger, "select "+selector, []Strategy{
		{"native select", func() error {
			return el.Select([]string{optionSel}, true, rod.SelectorTypeCSSSector)
		}},
		{"scripted events", func() error {
			_, err := el.Eval(jsSetSelectValue, value)
			return err
		}},
		{"click option", func() error {
			if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
				return err
			}
			opt, err := loc.Context.Sleeper(rod.NotFoundSleeper).Element(selector + " " + optionSel)
			if err != nil {
				return err
			}
			return opt.Click(proto.InputMouseButtonLeft, 1)
		}},
	})
}

// SetInput sets a text input's value. The scripted strategy runs first: the
// portal's date fields reformat on gx events and reject plain fills.
func (s *Setter) SetInput(loc Located, value string) bool {
	s.defaults()
	el := loc.Element

	return runChain(s.Logger, "input", []Strategy{
		{"scripted events", func() error {
			_, err := el.Eval(jsSetInputValue, value)
			return err
		}},
		{"simulated typing", func() error {
			if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
				return err
			}
			time.Sleep(200 * time.Millisecond)
			for _, r := range value {
				if err := el.Input(string(r)); err != nil {
					return err
				}
				time.Sleep(s.TypeDelay)
			}
			// Trailing blur commits the masked value.
			el.Eval(jsDispatchBlur)
			return nil
		}},
	})
}

// runChain evaluates strategies in order, short-circuiting on the first
// success. Returns false only when every strategy failed.
func runChain(logger *slog.Logger, target string, strategies []Strategy) bool {
	if logger == nil {
		logger = slog.Default()
	}
	for _, st := range strategies {
		err := runStrategy(st)
		if err == nil {
			logger.Debug("interact: set value", "target", target, "strategy", st.Name)
			return true
		}
		logger.Debug("interact: strategy failed", "target", target, "strategy", st.Name, "error", err)
	}
	logger.Warn("interact: all strategies failed", "target", target)
	return false
}

// runStrategy converts a panicking strategy into a failed one. Rod panics on
// detached elements in some paths; inside a cascade that is just a miss.
func runStrategy(st Strategy) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return st.Fn()
}
