// Package gitops creates the throwaway publish repository and performs
// the commit and force-push of staged artifacts. Force-pushing is the
// only destructive remote operation in the program and is confined to
// the explicitly named ForcePush method.
package gitops
