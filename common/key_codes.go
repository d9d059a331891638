package common

// Key codes delivered to window key callbacks.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	Key1 = 49 // 1 key (ASCII): load the sample box
	Key2 = 50 // 2 key (ASCII): load the configured point cloud
	KeyR = 82 // R key (ASCII): re-seed the model at its center

	KeyEsc = 256 // Escape key (GLFW): close the preview
)
