package hive

// Device is one product in the account. Props and State are only decoded
// for heating products.
type Device struct {
	ID    string       `json:"id"`
	Type  string       `json:"type"`
	Props HeatingProps `json:"props"`
	State HeatingState `json:"state"`
}

type HeatingProps struct {
	Temperature float64 `json:"temperature"`
	Working     bool    `json:"working"`
	Online      bool    `json:"online"`
}

type HeatingState struct {
	Name   string  `json:"name"`
	Mode   string  `json:"mode"`
	Target float64 `json:"target"`
}

// Status is what the CLI reports for the heating device.
type Status struct {
	Temperature float64 `json:"temperature"`
	Target      float64 `json:"target"`
	Working     bool    `json:"working"`
}
