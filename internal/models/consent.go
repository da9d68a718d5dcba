package models

// ConsentCategory is the fixed consent vocabulary. Necessary is always on
// and cannot be revoked.
type ConsentCategory string

const (
	ConsentNecessary  ConsentCategory = "necessary"
	ConsentFunctional ConsentCategory = "functional"
	ConsentAnalytics  ConsentCategory = "analytics"
	ConsentTargeting  ConsentCategory = "targeting"
)

// ConsentRecord is the persisted per-session consent state.
type ConsentRecord struct {
	SessionID  string `json:"-" gorm:"primaryKey;size:64"`
	Functional bool   `json:"functional"`
	Analytics  bool   `json:"analytics"`
	Targeting  bool   `json:"targeting"`
}

// Allows reports whether the record permits the given category.
func (r ConsentRecord) Allows(category ConsentCategory) bool {
	switch category {
	case ConsentNecessary:
		return true
	case ConsentFunctional:
		return r.Functional
	case ConsentAnalytics:
		return r.Analytics
	case ConsentTargeting:
		return r.Targeting
	}
	return false
}

// CookiePrefixes enumerates first-party cookie name prefixes written under
// each revocable category. On revoke these are actively expired; third-party
// cookies are outside document control and only logged.
var CookiePrefixes = map[ConsentCategory][]string{
	ConsentFunctional: {"pref_", "locale_"},
	ConsentAnalytics:  {"_ga", "_gid", "stat_"},
	ConsentTargeting:  {"_fbp", "ads_", "trk_"},
}
