package device

const platformFormat = "avfoundation"

func registerPlatform() {
	Register(newFFmpegFormat("avfoundation"))
}
