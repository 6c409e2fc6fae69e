package api

import "github.com/oscalarm/oscalarm/common"

// Version returns the daemon's version information.
func (s *Api) Version() *common.VersionResult {
	return &common.VersionResult{
		Version:   s.version,
		Commit:    s.commit,
		BuildType: s.buildType,
	}
}
