package component

// CameraTarget lets an entity compete for the follow camera; the active
// target with the highest priority wins.
type CameraTarget struct {
	Priority int
	Active   bool
}
