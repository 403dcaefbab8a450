//go:build !darwin && !linux

package device

const platformFormat = ""

func registerPlatform() {}
