package engine

import "path/filepath"

// vaultMetaDirName is the hidden subtree under the destination root that
// holds versioned and tombstoned payloads plus their JSON sidecars.
const vaultMetaDirName = ".plugbackup_meta"

// VaultLayout computes the destination, version, tombstone and sidecar
// paths for a given namespace. It is pure: no filesystem access.
type VaultLayout struct {
	destRoot  string
	namespace string
}

// NewVaultLayout builds a VaultLayout for destRoot and namespace.
func NewVaultLayout(destRoot, namespace string) VaultLayout {
	return VaultLayout{destRoot: destRoot, namespace: namespace}
}

// NamespaceRoot returns dst/<ns>, the live-payload subtree root for this namespace.
func (l VaultLayout) NamespaceRoot() string {
	return filepath.Join(l.destRoot, l.namespace)
}

// PayloadPath returns dst/<ns>/<rel>, the live destination path for rel.
func (l VaultLayout) PayloadPath(rel string) string {
	return filepath.Join(l.NamespaceRoot(), filepath.FromSlash(rel))
}

// MetaRoot returns dst/.plugbackup_meta.
func (l VaultLayout) MetaRoot() string {
	return filepath.Join(l.destRoot, vaultMetaDirName)
}

// VersionsRoot returns dst/.plugbackup_meta/versions/<ns>.
func (l VaultLayout) VersionsRoot() string {
	return filepath.Join(l.MetaRoot(), "versions", l.namespace)
}

// DeletedRoot returns dst/.plugbackup_meta/deleted/<ns>.
func (l VaultLayout) DeletedRoot() string {
	return filepath.Join(l.MetaRoot(), "deleted", l.namespace)
}

// VersionPath returns meta/versions/ns/<dirname(rel)>/<basename(rel)>.v<ts>.
func (l VaultLayout) VersionPath(rel, ts string) string {
	return vaultEntryPath(l.VersionsRoot(), rel, "v", ts)
}

// DeletedPath returns meta/deleted/ns/<dirname(rel)>/<basename(rel)>.d<ts>.
func (l VaultLayout) DeletedPath(rel, ts string) string {
	return vaultEntryPath(l.DeletedRoot(), rel, "d", ts)
}

// SidecarPath returns the metadata sidecar path for a vault payload: <payload>.json.
func SidecarPath(payloadPath string) string {
	return payloadPath + ".json"
}

func vaultEntryPath(root, rel, kindLetter, ts string) string {
	rel = CleanRel(rel)
	dir := filepath.Dir(filepath.FromSlash(rel))
	name := filepath.Base(filepath.FromSlash(rel))
	fileName := name + "." + kindLetter + ts
	if dir == "." {
		return filepath.Join(root, fileName)
	}
	return filepath.Join(root, dir, fileName)
}
