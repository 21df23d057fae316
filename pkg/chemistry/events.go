package chemistry

// ChangeKind distinguishes the two kinds of mutation a Mixture or
// Substance notifies observers about.
type ChangeKind int

const (
	Contents ChangeKind = iota
	Temperature
)

func (k ChangeKind) String() string {
	if k == Contents {
		return "Contents"
	}
	return "Temperature"
}

// MaterialChangedListener is notified of a Contents or Temperature
// change on a Mixture.
type MaterialChangedListener func(m *Mixture, kind ChangeKind)
