package domain

// Kind selects one of the two record collections.
type Kind string

const (
	KindArtist Kind = "artists"
	KindSong   Kind = "songs"
)

// Collection is the document collection backing the kind.
func (k Kind) Collection() string { return string(k) }

// IDField is the name of the server-assigned identifier in every collection.
const IDField = "Id"

// Record is implemented by pointers to Artist and Song.
type Record interface {
	RecordID() int
	SetRecordID(id int)
}
