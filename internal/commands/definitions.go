package commands

import "github.com/bwmarrin/discordgo"

const (
	CommandStudy = "study"

	subFeed       = "feed"
	subJoin       = "join"
	subLeave      = "leave"
	subWaitlist   = "waitlist"
	subUnwaitlist = "unwaitlist"
)

func sessionIDOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "id",
		Description: description,
		Required:    true,
		MinValue:    floatPtr(1),
	}
}

func GetCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:         CommandStudy,
			Description:  "Find and join study sessions",
			DMPermission: boolPtr(false),
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        subFeed,
					Description: "List upcoming sessions",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "range",
							Description: "Only sessions in this window",
							Choices: []*discordgo.ApplicationCommandOptionChoice{
								{Name: "today", Value: "today"},
								{Name: "tomorrow", Value: "tomorrow"},
								{Name: "this week", Value: "week"},
								{Name: "this month", Value: "month"},
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "type",
							Description: "Virtual or in-person",
							Choices: []*discordgo.ApplicationCommandOptionChoice{
								{Name: "virtual", Value: "virtual"},
								{Name: "in-person", Value: "in-person"},
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "q",
							Description: "Search title, description and subjects",
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        subJoin,
					Description: "Join a session",
					Options:     []*discordgo.ApplicationCommandOption{sessionIDOption("Session number")},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        subLeave,
					Description: "Leave a session",
					Options:     []*discordgo.ApplicationCommandOption{sessionIDOption("Session number")},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        subWaitlist,
					Description: "Queue for a full session",
					Options:     []*discordgo.ApplicationCommandOption{sessionIDOption("Session number")},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        subUnwaitlist,
					Description: "Leave a session's waitlist",
					Options:     []*discordgo.ApplicationCommandOption{sessionIDOption("Session number")},
				},
			},
		},
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func floatPtr(f float64) *float64 {
	return &f
}
