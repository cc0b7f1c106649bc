package format

// IsCompatibleWith reports whether f satisfies the requirement: every
// attribute specified in requirement must be matched by f (an object kind
// also matches its specializations); unspecified attributes of requirement
// match anything.
func (f Format) IsCompatibleWith(requirement Format) bool {
	if requirement.Width > 0 && f.Width != requirement.Width {
		return false
	}
	if requirement.Height > 0 && f.Height != requirement.Height {
		return false
	}
	if requirement.ColorSpace != ColorSpaceUnspecified && f.ColorSpace != requirement.ColorSpace {
		return false
	}
	if requirement.BytesPerSample != 0 && f.BytesPerSample != requirement.BytesPerSample {
		return false
	}
	if requirement.Target != TargetUnspecified && f.Target != requirement.Target {
		return false
	}
	if requirement.BaseType != BaseTypeUnspecified && f.BaseType != requirement.BaseType {
		return false
	}
	if requirement.ObjectKind != ObjectKindUnspecified && !f.ObjectKind.IsA(requirement.ObjectKind) {
		return false
	}
	return true
}
