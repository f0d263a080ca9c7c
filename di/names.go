package di

// Names lists the keys restproxy registers components under. Client keys are
// built with ClientKey.
type Names struct {
	Config    string
	Logger    string
	Transport string
	Recorder  string
	Compute   string
}

// Keys holds the default component keys.
var Keys = Names{
	Config:    "restproxy.config",
	Logger:    "restproxy.logger",
	Transport: "restproxy.transport",
	Recorder:  "restproxy.recorder",
	Compute:   "restproxy.compute",
}

// ClientKey returns the key a client for the named interface is registered
// under.
func ClientKey(name string) string {
	return "restproxy.client." + name
}
