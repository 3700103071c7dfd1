package web

import (
	"time"

	"formations/internal/domain/course"
	"formations/internal/domain/event"
)

type priceRequest struct {
	Label       string `json:"label" validate:"required,max=80"`
	AmountCents int    `json:"amount_cents" validate:"gte=0"`
}

type sessionPartRequest struct {
	Modality  string    `json:"modality" validate:"omitempty,oneof=presentiel distanciel mixte"`
	Place     string    `json:"place" validate:"max=200"`
	City      string    `json:"city" validate:"max=120"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	VisioURL  string    `json:"visio_url" validate:"omitempty,url"`
}

type sessionRequest struct {
	Parts []sessionPartRequest `json:"parts" validate:"min=1,dive"`
}

// courseRequest is the body of course submission and owner edits.
type courseRequest struct {
	Title       string           `json:"title" validate:"required,max=200"`
	Subtitle    string           `json:"subtitle" validate:"max=300"`
	Description string           `json:"description" validate:"required,max=20000"`
	Domain      string           `json:"domain" validate:"required,max=120"`
	Modality    string           `json:"modality" validate:"omitempty,oneof=presentiel distanciel mixte"`
	Prices      []priceRequest   `json:"prices" validate:"dive"`
	Funding     []string         `json:"funding" validate:"dive,required"`
	Keywords    []string         `json:"keywords" validate:"dive,required"`
	Populations []string         `json:"populations" validate:"dive,required"`
	Sessions    []sessionRequest `json:"sessions" validate:"dive"`
	PhotoURL    string           `json:"photo_url" validate:"max=500"`
	// OrganizationID affiliates a trainer's new course; ignored on edit.
	OrganizationID string `json:"organization_id"`
}

func (r courseRequest) edit() course.Edit {
	e := course.Edit{
		Title:       r.Title,
		Subtitle:    r.Subtitle,
		Description: r.Description,
		Domain:      r.Domain,
		Modality:    r.Modality,
		Funding:     r.Funding,
		Keywords:    r.Keywords,
		Populations: r.Populations,
		PhotoURL:    r.PhotoURL,
	}
	for _, p := range r.Prices {
		e.Prices = append(e.Prices, course.PriceVariant{Label: p.Label, AmountCents: p.AmountCents})
	}
	for _, s := range r.Sessions {
		var sess course.Session
		for _, p := range s.Parts {
			sess.Parts = append(sess.Parts, course.SessionPart{
				Modality:  p.Modality,
				Place:     p.Place,
				City:      p.City,
				StartDate: p.StartDate,
				EndDate:   p.EndDate,
				VisioURL:  p.VisioURL,
			})
		}
		e.Sessions = append(e.Sessions, sess)
	}
	return e
}

// eventRequest is the body of congress and webinar submissions and edits.
type eventRequest struct {
	Kind        string    `json:"kind" validate:"omitempty,oneof=congress webinar"`
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=20000"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at"`
	Location    string    `json:"location" validate:"max=200"`
	URL         string    `json:"url" validate:"omitempty,url"`
}

func (r eventRequest) edit() event.Edit {
	return event.Edit{
		Title:       r.Title,
		Description: r.Description,
		StartsAt:    r.StartsAt,
		EndsAt:      r.EndsAt,
		Location:    r.Location,
		URL:         r.URL,
	}
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type afficheRequest struct {
	// Order is the manual catalog position; null clears it.
	Order *int `json:"order" validate:"omitnil,gte=0"`
}

type reviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=4000"`
}

type mergeRequest struct {
	OrphanID string `json:"orphan_id" validate:"required"`
}
