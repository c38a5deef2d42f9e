package matcher

// variantClusters groups spellings and transliterations of the same given
// name. Read-only; membership is tested by containment, so a full name such
// as "mohamed ali" relates to both the mohamed and the ali cluster.
var variantClusters = [...][]string{
	{"mohamed", "mohamad", "mohammed", "mohammad", "muhammad", "محمد"},
	{"ahmed", "ahmad", "احمد"},
	{"ali", "aly", "علي"},
	{"yousef", "yusuf", "youssef", "يوسف"},
	{"khaled", "khalid", "خالد"},
	{"osama", "usama", "اسامة"},
	{"hassan", "hassaan", "حسن"},
	{"ibrahim", "ibraheem", "ابراهيم"},
	{"nour", "noor", "نور"},
	{"fatima", "fatma", "fatimah", "فاطمة"},
}

// relatesTo reports whether name and variant contain one another.
func relatesTo(name, variant string) bool {
	return contains(name, variant) || contains(variant, name)
}

// InSameCluster reports whether both names relate to some member of one
// variant cluster. Inputs are folded first.
func InSameCluster(a, b string) bool {
	return inSameCluster(Fold(a), Fold(b))
}

func inSameCluster(a, b string) bool {
	for _, cluster := range variantClusters {
		foundA, foundB := false, false
		for _, v := range cluster {
			if !foundA && relatesTo(a, v) {
				foundA = true
			}
			if !foundB && relatesTo(b, v) {
				foundB = true
			}
		}
		if foundA && foundB {
			return true
		}
	}
	return false
}

// ClusterCount is the number of built-in variant clusters.
func ClusterCount() int { return len(variantClusters) }
