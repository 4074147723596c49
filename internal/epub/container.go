package epub

// RenderContainer renders META-INF/container.xml pointing at the package
// document stored under opfPath.
func RenderContainer(opfPath string) ([]byte, error) {
	doc := newDocument()
	container := doc.CreateElement("container")
	container.CreateAttr("version", "1.0")
	container.CreateAttr("xmlns", nsContainer)

	rootfile := container.CreateElement("rootfiles").CreateElement("rootfile")
	rootfile.CreateAttr("full-path", opfPath)
	rootfile.CreateAttr("media-type", mediaTypeOPFPkg)

	return serialize(doc, ContainerPath)
}
