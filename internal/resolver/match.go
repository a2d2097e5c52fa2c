package resolver

import (
	"strings"

	"servicepulse/backend/internal/models"
)

// AssignVendorMatches reports whether any identity named by candidate is the
// given vendor. Ids, e-mails and names are compared case-insensitively; a
// bare string may match any of the three.
func AssignVendorMatches(candidate *models.VendorRef, identity models.Identity) bool {
	vendorID := identityVendorID(identity)
	for _, c := range candidate.Candidates() {
		if eq(c.ID, vendorID) || eq(c.Email, identity.Email) || eq(c.Name, identity.Name) {
			return true
		}
	}
	return false
}

// VendorOwns reports whether complaint c is on the vendor's job list: the
// order's vendor first, then assignedVendor, then the flat vendor fields.
func VendorOwns(c models.Complaint, identity models.Identity) bool {
	vendorID := identityVendorID(identity)
	if eq(c.BulkVendorID, vendorID) {
		return true
	}
	if !c.AssignedVendor.IsZero() && AssignVendorMatches(c.AssignedVendor, identity) {
		return true
	}
	if eq(c.VendorName, identity.Name) {
		return true
	}
	return eq(c.VendorID, vendorID)
}

// identityVendorID falls back to the account id for legacy sessions that
// carried no explicit vendor id.
func identityVendorID(identity models.Identity) string {
	if identity.VendorID != "" {
		return identity.VendorID
	}
	return identity.ID
}

func eq(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && b != "" && strings.EqualFold(a, b)
}
