package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type DiscordUser struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	GlobalName *string `json:"global_name"`
	Email      string  `json:"email"`
	Avatar     *string `json:"avatar"`
}

// getDiscordUser fetches /users/@me with an OAuth2-authorized client.
func (a *API) getDiscordUser(ctx context.Context, client *http.Client) (*DiscordUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.discordAPI+"/users/@me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "studyhub/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discord API returned status %d", resp.StatusCode)
	}

	var user DiscordUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, fmt.Errorf("discord API returned no user id")
	}
	return &user, nil
}

func getUsername(user *DiscordUser) string {
	if user.GlobalName != nil && *user.GlobalName != "" {
		return *user.GlobalName
	}
	return user.Username
}
