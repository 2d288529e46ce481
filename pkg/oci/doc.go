// Package oci packs package trees as OCI artifacts and pushes them to
// OCI-compliant registries with ORAS.
//
// A package tree becomes a single gzip tar layer under an OCI 1.1 manifest
// with artifact type "application/vnd.nvidia.recipekit.package". The
// manifest carries the recipe identity as standard OCI annotations
// (title, version, licenses, authors, url, description) and the package
// fingerprint and upstream commit under com.nvidia.recipekit.* keys.
//
// # Usage
//
//	ref, err := oci.ParseOutputTarget("oci://ghcr.io/nvidia/qtpromise:master")
//	if err != nil {
//	    return err
//	}
//	res, err := oci.Upload(ctx, oci.OutputConfig{
//	    SourceDir:   pkgDir,
//	    OutputDir:   layoutDir,
//	    Reference:   ref,
//	    Annotations: oci.PackageAnnotations(r.Identity(), info),
//	})
//
// A target without the oci:// scheme is a local directory; Upload then only
// writes the OCI Image Layout there.
//
// # Authentication
//
// Credentials come from the Docker configuration (~/.docker/config.json)
// through the ORAS credentials package. Without one, pushes are anonymous.
package oci
