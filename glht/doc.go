/*
Package glht tests general linear hypotheses about the coefficients of a
fitted linear model.

A hypothesis is a row c of a contrast matrix L, stating H0: c . beta = m.
Each row is estimated as c . beta with standard error sqrt(c V c'), where
V is the coefficient covariance of the model, and tested marginally with a
two-sided t test on the residual degrees of freedom.  Rows from several
contrast matrices can be collected in a Table, whose p-values are then
adjusted for multiple comparisons jointly over the whole table:

	rslt, err := lm.NewOLS(dm, y).Done().Fit()
	...
	tb := glht.NewTable()
	tb.Add(rslt, means)
	tb.Add(rslt, pairwise)
	tb.Adjust()
	fmt.Print(tb.Summary())

Tester.FTest performs the joint F test of all rows of one contrast matrix.
*/

package glht
