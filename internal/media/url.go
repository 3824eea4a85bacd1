package media

import "strings"

// JoinPublicURL joins the configured public base URL with a served path,
// normalizing slashes on both sides.
func JoinPublicURL(base, servePath string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(servePath, "/")
}
