package sanitizer

import "serenity/pkg/model"

// SanitizeGuestInfo normalizes a guest contact block in place. A phone
// number that cannot be parsed for any supported region is cleared so
// validation rejects it downstream.
func SanitizeGuestInfo(info *model.GuestInfo) {
	if info == nil {
		return
	}
	info.FullName = NormalizeName(info.FullName)
	info.Phone = NormalizePhone(info.Phone)
	info.Email = TrimAndNormalize(info.Email)
}
