package queue

import (
	"time"

	"github.com/mvartia/marquee/internal/domain/slide"
)

// Queue is a named, ordered collection of slides rendered in sequence by a
// player. Slides is populated in committed index order when the queue is
// loaded through the service.
type Queue struct {
	Name      string        `json:"name"`
	Owner     string        `json:"owner"`
	CreatedAt time.Time     `json:"created_at"`
	Slides    []slide.Slide `json:"slides"`
}

// Summary is a lightweight representation for listing
type Summary struct {
	Name       string    `json:"name"`
	Owner      string    `json:"owner"`
	SlideCount int       `json:"slide_count"`
	CreatedAt  time.Time `json:"created_at"`
}
