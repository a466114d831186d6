package mail

// Label is a mailbox tag as reported by the provider.
type Label struct {
	Name string
	ID   string
}

func (l Label) String() string {
	return l.Name
}
