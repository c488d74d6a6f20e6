// Package naming derives the resource names used on the hypervisor.
//
// Every domain and private network name is qualified with the run's
// prefix so that two deployments never collide on the same hypervisor,
// and a repeated run with the same prefix recognizes its own resources
// by exact name match.
package naming

import (
	"fmt"
	"regexp"
)

// ImageDir is where libvirt stores disk volumes on the hypervisor.
const ImageDir = "/var/lib/libvirt/images"

var prefixRe = regexp.MustCompile(`^[._a-zA-Z0-9]+$`)

// ValidatePrefix rejects prefixes that are not identifier-safe.
func ValidatePrefix(prefix string) error {
	if !prefixRe.MatchString(prefix) {
		return fmt.Errorf("invalid prefix %q: only letters, digits, '.' and '_' are allowed", prefix)
	}
	return nil
}

// Namespaced qualifies a logical name with the deployment prefix.
func Namespaced(prefix, name string) string {
	return fmt.Sprintf("%s_%s", prefix, name)
}

// PrivateNetwork names the per-deployment private network.
func PrivateNetwork(prefix string) string {
	return Namespaced(prefix, "sps")
}

// DiskFilename names the qcow2 volume backing a domain's nth disk.
func DiskFilename(domain string, index int) string {
	return fmt.Sprintf("%s-%03d.qcow2", domain, index)
}

// DiskPath is the full remote path of a domain's nth disk volume.
func DiskPath(domain string, index int) string {
	return fmt.Sprintf("%s/%s", ImageDir, DiskFilename(domain, index))
}

// SeedImagePath is the final location of a domain's cloud-init volume.
func SeedImagePath(domain string) string {
	return fmt.Sprintf("%s/%s_cloud-init.qcow2", ImageDir, domain)
}

// SeedDataDir is the remote scratch directory used while packing the
// seed image.
func SeedDataDir(domain string) string {
	return fmt.Sprintf("/tmp/%s_data", domain)
}

// ImagePath is the full remote path of a base image.
func ImagePath(image string) string {
	return fmt.Sprintf("%s/%s", ImageDir, image)
}
