package dto

import "github.com/annazecevic/catalog-service/domain"

// Request schemas. Pointer fields distinguish a missing key from a zero value.
// The description and example tags feed the generated API documentation.

type CreateArtistRequest struct {
	Name *string `json:"Name" validate:"required,min=1,max=16" description:"Name of Artist" example:"Def Leppard"`
}

type ArtistRequest struct {
	Id   *int    `json:"Id" validate:"omitempty" description:"Id of Artist" example:"760"`
	Name *string `json:"Name" validate:"required,min=1,max=16" description:"Name of Artist" example:"Def Leppard"`
}

type CreateSongRequest struct {
	Name      *string `json:"Name" validate:"required" description:"Name of the Rock Song" example:"(Don't Fear) The Reaper"`
	Year      *int    `json:"Year" validate:"required" description:"Year when the song was recorded" example:"1975"`
	Artist    *string `json:"Artist" validate:"required" description:"Artist of the Rock Song" example:"Blue Öyster Cult"`
	Shortname *string `json:"Shortname" validate:"required" description:"Short name of the Rock Song" example:"dontfearthereaper"`
	Bpm       *int    `json:"Bpm" validate:"required" description:"Beats per Minute of the song" example:"141"`
	Duration  *int    `json:"Duration" validate:"required" description:"Duration of the song in milliseconds" example:"322822"`
	Genre     *string `json:"Genre" validate:"required" description:"Genre of the Rock Song" example:"Classic Rock"`
	SpotifyId *string `json:"SpotifyId" validate:"required" description:"Spotify Id of the Rock Song" example:"5QTxFnGygVM4jFQiBovmRo"`
	Album     *string `json:"Album" validate:"required" description:"Album of the Rock Song" example:"Agents of Fortune"`
}

type SongRequest struct {
	Id *int `json:"Id" validate:"omitempty" description:"Id of the Song" example:"190"`
	CreateSongRequest
}

func (r *CreateArtistRequest) Artist() *domain.Artist {
	return &domain.Artist{Name: deref(r.Name)}
}

func (r *ArtistRequest) RequestedID() *int { return r.Id }

func (r *ArtistRequest) Changes() map[string]interface{} {
	return map[string]interface{}{"Name": deref(r.Name)}
}

func (r *CreateSongRequest) Song() *domain.Song {
	return &domain.Song{
		Name:      deref(r.Name),
		Year:      deref(r.Year),
		Artist:    deref(r.Artist),
		Shortname: deref(r.Shortname),
		Bpm:       deref(r.Bpm),
		Duration:  deref(r.Duration),
		Genre:     deref(r.Genre),
		SpotifyId: deref(r.SpotifyId),
		Album:     deref(r.Album),
	}
}

func (r *SongRequest) RequestedID() *int { return r.Id }

func (r *SongRequest) Changes() map[string]interface{} {
	return map[string]interface{}{
		"Name":      deref(r.Name),
		"Year":      deref(r.Year),
		"Artist":    deref(r.Artist),
		"Shortname": deref(r.Shortname),
		"Bpm":       deref(r.Bpm),
		"Duration":  deref(r.Duration),
		"Genre":     deref(r.Genre),
		"SpotifyId": deref(r.SpotifyId),
		"Album":     deref(r.Album),
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// Response bodies other than records.

// ErrorResponse is the body of every failed catalog request. Errors maps a
// field name to its validation messages; Message is set otherwise.
type ErrorResponse struct {
	Success bool                `json:"success" description:"Always false" example:"false"`
	Message string              `json:"message,omitempty" description:"What went wrong" example:"resource not found"`
	Errors  map[string][]string `json:"errors,omitempty" description:"Validation messages per field"`
}

type MessageResponse struct {
	Message string `json:"message" description:"Why the request was refused" example:"request is not allowed"`
}

type HealthResponse struct {
	Status string `json:"status" description:"ok or unavailable" example:"ok"`
}
