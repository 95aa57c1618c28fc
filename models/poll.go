package models

import (
	"math"
	"time"
)

// Poll is a question with an ordered, immutable set of options.
type Poll struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	Question   string       `gorm:"type:varchar(500);not null" json:"question"`
	CreatedAt  time.Time    `gorm:"autoCreateTime;index" json:"createdAt"`
	Options    []PollOption `gorm:"foreignKey:PollID;constraint:OnDelete:CASCADE" json:"options"`
	TotalVotes int64        `gorm:"-" json:"totalVotes"`
}

func (Poll) TableName() string {
	return "polls"
}

// PollOption is one selectable answer of a poll and its vote counter.
type PollOption struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	PollID     uint    `gorm:"not null;index" json:"-"`
	Text       string  `gorm:"type:varchar(255);not null" json:"text"`
	Votes      int64   `gorm:"not null;default:0" json:"votes"`
	Percentage float64 `gorm:"-" json:"percentage"`
}

func (PollOption) TableName() string {
	return "poll_options"
}

// Tally fills TotalVotes and every option's Percentage from the stored counters.
func (p *Poll) Tally() {
	var total int64
	for _, opt := range p.Options {
		total += opt.Votes
	}
	p.TotalVotes = total

	for i := range p.Options {
		p.Options[i].Percentage = Percentage(p.Options[i].Votes, total)
	}
}

// Percentage returns votes as a share of total, rounded to two decimals.
func Percentage(votes, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(votes)/float64(total)*10000) / 100
}
