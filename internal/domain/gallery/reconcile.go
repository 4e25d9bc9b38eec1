package gallery

import "slices"

// FinalImages returns the retained existing images followed by the uploaded
// ones in upload order. References in marked and duplicates are skipped.
func FinalImages(existing, marked, uploaded []string) []string {
	final := make([]string, 0, len(existing)+len(uploaded))
	for _, ref := range existing {
		if slices.Contains(marked, ref) || slices.Contains(final, ref) {
			continue
		}
		final = append(final, ref)
	}
	for _, ref := range uploaded {
		if slices.Contains(final, ref) {
			continue
		}
		final = append(final, ref)
	}
	return final
}

// ResolveMain maps a staged preview handle to the reference its file was
// uploaded under, by position, and returns "" when the result is not part of
// final.
func ResolveMain(mainRef string, staged []StagedFile, uploaded, final []string) string {
	if mainRef == "" {
		return ""
	}
	if IsPreviewHandle(mainRef) {
		i := slices.IndexFunc(staged, func(f StagedFile) bool { return f.Handle == mainRef })
		if i < 0 || i >= len(uploaded) {
			return ""
		}
		mainRef = uploaded[i]
	}
	if !slices.Contains(final, mainRef) {
		return ""
	}
	return mainRef
}

// DisplayImage picks the image to show for a listing: the main image when it
// is set and present, otherwise the first image, otherwise placeholder.
func DisplayImage(images []string, mainImage, placeholder string) string {
	if mainImage != "" && slices.Contains(images, mainImage) {
		return mainImage
	}
	if len(images) > 0 {
		return images[0]
	}
	return placeholder
}
