package auth

// OAuth scopes defined by the Donation Alerts API.
const (
	ScopeUserShow           = "oauth-user-show"
	ScopeDonationIndex      = "oauth-donation-index"
	ScopeCustomAlertStore   = "oauth-custom_alert-store"
	ScopeDonationSubscribe  = "oauth-donation-subscribe"
	ScopeGoalSubscribe      = "oauth-goal-subscribe"
	ScopePollSubscribe      = "oauth-poll-subscribe"
	ScopeAllWidgetSubscribe = "oauth-all-widget-subscribe"
)

// CompareScopes validates a token's granted scopes against a requested set.
// It returns a *MissingScopeError listing every requested scope that is not
// granted, preserving the request order. An empty request always passes.
func CompareScopes(granted, requested []string, userID int64) error {
	if len(requested) == 0 {
		return nil
	}

	have := make(map[string]bool, len(granted))
	for _, scope := range granted {
		have[scope] = true
	}

	var missing []string
	for _, scope := range requested {
		if !have[scope] {
			missing = append(missing, scope)
		}
	}

	if len(missing) > 0 {
		return &MissingScopeError{UserID: userID, Scopes: missing}
	}
	return nil
}
