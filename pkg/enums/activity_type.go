package enums

import "fmt"

// ActivityType classifies a recorded customer activity event.
type ActivityType string

const (
	ActivityTypeLogin          ActivityType = "LOGIN"
	ActivityTypePageView       ActivityType = "PAGE_VIEW"
	ActivityTypeProductView    ActivityType = "PRODUCT_VIEW"
	ActivityTypeCartAdd        ActivityType = "CART_ADD"
	ActivityTypeCartRemove     ActivityType = "CART_REMOVE"
	ActivityTypePurchase       ActivityType = "PURCHASE"
	ActivityTypeSearch         ActivityType = "SEARCH"
	ActivityTypeProfileUpdate  ActivityType = "PROFILE_UPDATE"
	ActivityTypeOrderTracking  ActivityType = "ORDER_TRACKING"
	ActivityTypePaymentAttempt ActivityType = "PAYMENT_ATTEMPT"
)

var validActivityTypes = []ActivityType{
	ActivityTypeLogin,
	ActivityTypePageView,
	ActivityTypeProductView,
	ActivityTypeCartAdd,
	ActivityTypeCartRemove,
	ActivityTypePurchase,
	ActivityTypeSearch,
	ActivityTypeProfileUpdate,
	ActivityTypeOrderTracking,
	ActivityTypePaymentAttempt,
}

// String implements fmt.Stringer.
func (a ActivityType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActivityType.
func (a ActivityType) IsValid() bool {
	for _, candidate := range validActivityTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActivityType converts raw input into an ActivityType.
func ParseActivityType(value string) (ActivityType, error) {
	for _, candidate := range validActivityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity type %q", value)
}
