package models

// ActionType names a page interaction run between navigation and the
// operation.
type ActionType string

const (
	ActionWait   ActionType = "wait"
	ActionClick  ActionType = "click"
	ActionScroll ActionType = "scroll"
	ActionEval   ActionType = "eval"
)

// Action is one step of a WorkItem's pre-operation script, e.g. dismissing
// a cookie banner before a screenshot or scrolling to trigger lazy images.
type Action struct {
	Type ActionType `yaml:"type" json:"type" validate:"required,oneof=wait click scroll eval"`

	// Selector is the element to wait for (wait) or to click (click).
	Selector string `yaml:"selector,omitempty" json:"selector,omitempty" validate:"required_if=Type click"`

	// Milliseconds is a fixed pause for a wait without a selector.
	Milliseconds int `yaml:"ms,omitempty" json:"ms,omitempty" validate:"gte=0"`

	// Amount is the number of viewports to scroll. Default: 1.
	Amount int `yaml:"amount,omitempty" json:"amount,omitempty" validate:"gte=0"`

	// Direction is "up" or "down". Default: down.
	Direction string `yaml:"direction,omitempty" json:"direction,omitempty" validate:"omitempty,oneof=up down"`

	// Code is a JavaScript function expression evaluated in the page.
	Code string `yaml:"code,omitempty" json:"code,omitempty" validate:"required_if=Type eval"`
}
