package protocol

import "fmt"

// Version is a version number as int
type Version uint32

const (
	// VersionUnknown is an invalid version
	VersionUnknown Version = 0
	// VersionDraft13 is the QUIC draft-13 version number.
	// RETIRE_CONNECTION_ID is backported from draft-14.
	VersionDraft13 Version = 0xff00000d
)

// SupportedVersions lists the versions that the endpoint accepts, in the
// order of preference.
var SupportedVersions = []Version{VersionDraft13}

// IsSupportedVersion returns true if the server supports this version
func IsSupportedVersion(supported []Version, v Version) bool {
	for _, t := range supported {
		if t == v {
			return true
		}
	}
	return false
}

// ChooseSupportedVersion finds the best version in the overlap of ours and
// theirs. Ours is a slice of versions with prioritized preference.
func ChooseSupportedVersion(ours, theirs []Version) (Version, bool) {
	for _, ourVer := range ours {
		for _, theirVer := range theirs {
			if ourVer == theirVer {
				return ourVer, true
			}
		}
	}
	return 0, false
}

func (v Version) String() string {
	if v == VersionDraft13 {
		return "draft-13"
	}
	return fmt.Sprintf("%#x", uint32(v))
}
