package domain

type Artist struct {
	Id   int    `bson:"Id" json:"Id"`
	Name string `bson:"Name" json:"Name"`
}

func (a *Artist) RecordID() int      { return a.Id }
func (a *Artist) SetRecordID(id int) { a.Id = id }
