package main

import (
	"strconv"
	"time"

	"github.com/vango-go/weft/pkg/runtime"
	"github.com/vango-go/weft/pkg/vdom"
)

type counterModel struct {
	Count int
	Step  int
}

type counterMsg interface{ isCounterMsg() }

type (
	increment struct{}
	decrement struct{}
	reset     struct{}
	setStep   struct{ Step int }
)

func (increment) isCounterMsg() {}
func (decrement) isCounterMsg() {}
func (reset) isCounterMsg()     {}
func (setStep) isCounterMsg()   {}

// counterApp is the demo application weft serve mounts per session.
var counterApp = runtime.App[counterModel, counterMsg]{
	Init: func() (counterModel, runtime.Effect[counterMsg]) {
		return counterModel{Step: 1}, runtime.None[counterMsg]()
	},
	Update: func(m counterModel, msg counterMsg) (counterModel, runtime.Effect[counterMsg]) {
		switch msg := msg.(type) {
		case increment:
			m.Count += m.Step
		case decrement:
			m.Count -= m.Step
		case reset:
			m.Count = 0
		case setStep:
			if msg.Step > 0 {
				m.Step = msg.Step
			}
		}
		return m, runtime.None[counterMsg]()
	},
	View: func(m counterModel) *vdom.Node {
		return vdom.Div(
			vdom.Class("counter"),
			vdom.H1(vdom.Text("Counter")),
			vdom.P(vdom.Class("count"), vdom.Textf("%d", m.Count)),
			vdom.Button(vdom.OnClick(counterMsg(decrement{})), vdom.Text("-")),
			vdom.Button(vdom.OnClick(counterMsg(increment{})), vdom.Text("+")),
			vdom.Button(
				vdom.OnClick(counterMsg(reset{})),
				vdom.Disabled(m.Count == 0),
				vdom.Text("reset"),
			),
			vdom.Label(
				vdom.Text("step "),
				vdom.Input(
					vdom.Type("number"),
					vdom.Value(strconv.Itoa(m.Step)),
					vdom.OnInput(func(v string) any {
						return counterMsg(setStep{Step: runtime.ParseInt(v, 1)})
					}, vdom.Debounce(200*time.Millisecond)),
				),
			),
		)
	},
}
