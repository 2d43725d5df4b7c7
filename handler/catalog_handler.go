package handler

import (
	"net/http"

	"github.com/annazecevic/catalog-service/docs"
	"github.com/annazecevic/catalog-service/domain"
	"github.com/annazecevic/catalog-service/dto"
	"github.com/annazecevic/catalog-service/service"
	"github.com/gin-gonic/gin"
	"github.com/go-openapi/spec"
)

type CatalogHandler struct {
	artists *recordHandler[domain.Artist, dto.CreateArtistRequest, dto.ArtistRequest]
	songs   *recordHandler[domain.Song, dto.CreateSongRequest, dto.SongRequest]
}

func NewCatalogHandler(artists service.RecordService[domain.Artist], songs service.RecordService[domain.Song]) *CatalogHandler {
	return &CatalogHandler{
		artists: &recordHandler[domain.Artist, dto.CreateArtistRequest, dto.ArtistRequest]{
			kind:      domain.KindArtist,
			svc:       artists,
			filters:   map[string]string{"name": "Name"},
			newRecord: (*dto.CreateArtistRequest).Artist,
			changes: func(r *dto.ArtistRequest) (*int, map[string]interface{}) {
				return r.RequestedID(), r.Changes()
			},
		},
		songs: &recordHandler[domain.Song, dto.CreateSongRequest, dto.SongRequest]{
			kind:      domain.KindSong,
			svc:       songs,
			filters:   map[string]string{"name": "Name", "genre": "Genre"},
			newRecord: (*dto.CreateSongRequest).Song,
			changes: func(r *dto.SongRequest) (*int, map[string]interface{}) {
				return r.RequestedID(), r.Changes()
			},
		},
	}
}

func (h *CatalogHandler) RegisterRoutes(r *gin.Engine) {
	h.artists.register(r)
	h.songs.register(r)
}

// Describe adds the catalog routes to the API documentation.
func (h *CatalogHandler) Describe(reg *docs.Registry) {
	describeRecords(reg, "/artists", "artists", "artist", domain.Artist{}, dto.CreateArtistRequest{}, dto.ArtistRequest{},
		[]*spec.Parameter{searchParam("name", "Case-insensitive part of the artist name")})
	describeRecords(reg, "/songs", "songs", "song", domain.Song{}, dto.CreateSongRequest{}, dto.SongRequest{},
		[]*spec.Parameter{
			searchParam("name", "Case-insensitive part of the song name"),
			searchParam("genre", "Case-insensitive part of the genre"),
		})
}

func searchParam(name, desc string) *spec.Parameter {
	return spec.QueryParam(name).Typed("string", "").WithDescription(desc)
}

func describeRecords(reg *docs.Registry, base, tag, noun string, record, create, full interface{}, query []*spec.Parameter) {
	item := base + "/:id"
	reg.Describe(http.MethodGet, base, docs.Route{
		Summary: "List " + tag, Tag: tag, Query: query,
		Response: record, ResponseArray: true,
		Status: map[int]string{http.StatusOK: "Matching " + tag + " ordered by Id, at most 100"},
	})
	reg.Describe(http.MethodPost, base, docs.Route{
		Summary: "Create a " + noun, Tag: tag,
		Request: create, Response: record,
		Status: map[int]string{
			http.StatusCreated:    "The created " + noun + ", or the existing one with identical fields",
			http.StatusBadRequest: "Malformed body or validation errors",
		},
	})
	reg.Describe(http.MethodGet, item, docs.Route{
		Summary: "Get a " + noun, Tag: tag, Response: record,
		Status: map[int]string{http.StatusOK: "The " + noun, http.StatusNotFound: "No " + noun + " with this Id"},
	})
	reg.Describe(http.MethodPut, item, docs.Route{
		Summary: "Update a " + noun, Tag: tag, Request: full,
		Status: map[int]string{
			http.StatusOK:         "Updated",
			http.StatusBadRequest: "Malformed body or validation errors",
			http.StatusNotFound:   "No " + noun + " with this Id",
		},
	})
	reg.Describe(http.MethodDelete, item, docs.Route{
		Summary: "Delete a " + noun, Tag: tag,
		Status: map[int]string{http.StatusOK: "Deleted", http.StatusNotFound: "No " + noun + " with this Id"},
	})
}
