package domain

type Song struct {
	Id        int    `bson:"Id" json:"Id"`
	Name      string `bson:"Name" json:"Name"`
	Year      int    `bson:"Year" json:"Year"`
	Artist    string `bson:"Artist" json:"Artist"`
	Shortname string `bson:"Shortname" json:"Shortname"`
	Bpm       int    `bson:"Bpm" json:"Bpm"`
	Duration  int    `bson:"Duration" json:"Duration"` // milliseconds
	Genre     string `bson:"Genre" json:"Genre"`
	SpotifyId string `bson:"SpotifyId" json:"SpotifyId"`
	Album     string `bson:"Album" json:"Album"`
}

func (s *Song) RecordID() int      { return s.Id }
func (s *Song) SetRecordID(id int) { s.Id = id }
