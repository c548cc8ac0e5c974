package actions

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"gorm.io/gorm"

	"launchkit/internal/access"
	"launchkit/internal/apperr"
	"launchkit/internal/audit"
	"launchkit/internal/authprovider"
	"launchkit/internal/models"
)

const maxPreferenceKeys = 50

// authorizePreferences lets users manage their own preferences and
// organization owners manage the organization's.
func (a *Actions) authorizePreferences(ctx context.Context, r *http.Request, scope models.PreferenceScope, ownerID string, p access.Permission) (*authprovider.SessionData, error) {
	switch scope {
	case models.PreferenceScopeUser:
		sd, err := a.guard.ValidateRequest(ctx, r)
		if err != nil {
			return nil, err
		}
		if sd.User.ID != ownerID && sd.User.Role != models.SystemRoleAdmin {
			return nil, apperr.Forbidden("")
		}
		return sd, nil
	case models.PreferenceScopeOrganization:
		return a.guard.ValidateRequest(ctx, r, access.WithPermission(p), access.WithOrganization(ownerID))
	default:
		return nil, apperr.Validation(fmt.Sprintf("unknown preference scope %q", scope), nil)
	}
}

func entityFor(scope models.PreferenceScope) audit.EntityType {
	if scope == models.PreferenceScopeOrganization {
		return audit.EntityOrganization
	}
	return audit.EntityUser
}

// UpdatePreferences replaces the given keys. The writes and the audit entry
// share one transaction.
func (a *Actions) UpdatePreferences(ctx context.Context, r *http.Request, scope models.PreferenceScope, ownerID string, values map[string]string) error {
	if ownerID == "" {
		return apperr.Validation("owner id is required", nil)
	}
	sd, err := a.authorizePreferences(ctx, r, scope, ownerID, access.PermPreferencesManage)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return apperr.Validation("no preferences given", nil)
	}
	if len(values) > maxPreferenceKeys {
		return apperr.Validation(fmt.Sprintf("at most %d preferences per update", maxPreferenceKeys), nil)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "" || len(k) > 100 {
			return apperr.Validation(fmt.Sprintf("invalid preference key %q", k), nil)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ctx = audit.WithRequest(ctx, r)

	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, k := range keys {
			err := tx.Where("scope = ? AND owner_id = ? AND key = ?", scope, ownerID, k).
				Delete(&models.Preference{}).Error
			if err != nil {
				return apperr.Internal(fmt.Errorf("delete preference %s: %w", k, err))
			}
			pref := &models.Preference{Scope: scope, OwnerID: ownerID, Key: k, Value: values[k]}
			if err := tx.Create(pref).Error; err != nil {
				return apperr.Internal(fmt.Errorf("create preference %s: %w", k, err))
			}
		}
		return record(ctx, a.audit.WithTx(tx), audit.Params{
			Action:     audit.ActionPreferencesUpdate,
			EntityType: entityFor(scope),
			EntityID:   ownerID,
			ActorID:    sd.User.ID,
			Metadata:   map[string]any{"scope": string(scope), "keys": keys},
		}, nil)
	})
}

// GetPreferences returns the stored preferences of one owner as a map.
func (a *Actions) GetPreferences(ctx context.Context, r *http.Request, scope models.PreferenceScope, ownerID string) (map[string]string, error) {
	if _, err := a.authorizePreferences(ctx, r, scope, ownerID, access.PermOrganizationView); err != nil {
		return nil, err
	}
	var prefs []models.Preference
	err := a.db.WithContext(ctx).
		Where("scope = ? AND owner_id = ?", scope, ownerID).
		Find(&prefs).Error
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list preferences: %w", err))
	}
	out := make(map[string]string, len(prefs))
	for _, p := range prefs {
		out[p.Key] = p.Value
	}
	return out, nil
}
