package service

import (
	"strings"

	"polling-backend/config"
	"polling-backend/models"
)

// DefaultSeed is installed on reset and on first start when no seed is configured.
var DefaultSeed = []config.SeedPoll{
	{
		Question: "What is your favorite programming language?",
		Options:  []string{"Go", "Python", "JavaScript", "Rust"},
	},
	{
		Question: "Which database do you prefer?",
		Options:  []string{"PostgreSQL", "MySQL", "SQLite", "MongoDB"},
	},
	{
		Question: "How do you deploy your services?",
		Options:  []string{"Kubernetes", "Docker Compose", "Serverless", "Bare metal"},
	},
}

// buildPoll trims the question and options and drops blank options.
func buildPoll(question string, options []string) models.Poll {
	poll := models.Poll{Question: strings.TrimSpace(question)}
	for _, text := range options {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		poll.Options = append(poll.Options, models.PollOption{Text: text})
	}
	return poll
}

func seedPolls(seed []config.SeedPoll) []models.Poll {
	if len(seed) == 0 {
		seed = DefaultSeed
	}

	polls := make([]models.Poll, 0, len(seed))
	for _, s := range seed {
		polls = append(polls, buildPoll(s.Question, s.Options))
	}
	return polls
}
