package device

const platformFormat = "v4l2"

func registerPlatform() {
	Register(v4l2Input{})
}
